// Package structure implements both halves of structure handling: the
// agent-side flood-fill Structure Discovery of spec.md §4.5, and the
// server-side bounding-box Structure Merger of spec.md §4.10.
package structure

import (
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
)

// BoundingBox is an inclusive block-coordinate box.
type BoundingBox struct {
	MinX, MaxX, MinZ, MaxZ int
}

// Center returns the box's horizontal midpoint, using Go integer division
// (which rounds toward zero when the sum is negative).
func (b BoundingBox) Center() (x, z int) {
	return (b.MinX + b.MaxX) / 2, (b.MinZ + b.MaxZ) / 2
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		MinX: min(b.MinX, o.MinX), MaxX: max(b.MaxX, o.MaxX),
		MinZ: min(b.MinZ, o.MinZ), MaxZ: max(b.MaxZ, o.MaxZ),
	}
}

// Contains reports whether o lies entirely within b.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX && o.MinZ >= b.MinZ && o.MaxZ <= b.MaxZ
}

// OverlapsOrAdjacent reports whether b and o overlap, or are edge-adjacent
// (touching on one axis while overlapping-or-touching on the other), per
// spec.md §4.10.
func (b BoundingBox) OverlapsOrAdjacent(o BoundingBox) bool {
	if b.overlaps(o) {
		return true
	}
	xAdjacent := b.MaxX+1 == o.MinX || o.MaxX+1 == b.MinX
	zAdjacent := b.MaxZ+1 == o.MinZ || o.MaxZ+1 == b.MinZ
	xTouchOrOverlap := b.MinX <= o.MaxX+1 && o.MinX <= b.MaxX+1
	zTouchOrOverlap := b.MinZ <= o.MaxZ+1 && o.MinZ <= b.MaxZ+1
	if xAdjacent && zTouchOrOverlap {
		return true
	}
	if zAdjacent && xTouchOrOverlap {
		return true
	}
	return false
}

func (b BoundingBox) overlaps(o BoundingBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinZ <= o.MaxZ && o.MinZ <= b.MaxZ
}

// Structure is a discovered named structure, merged across chunks of the
// same type within a dimension.
type Structure struct {
	Type         string
	Dimension    coord.Dimension
	CenterX      int
	CenterY      int
	CenterZ      int
	Box          BoundingBox
	DiscoveredAt time.Time
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
