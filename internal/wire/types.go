// Package wire defines the JSON payload shapes exchanged between the agent
// and the server over the HTTP surface in spec.md §6, and their validation.
package wire

import (
	"fmt"

	"github.com/df-mc/mapcarta/internal/coord"
)

// RGBA is a block's map color. (0,0,0,0) means "no color" per the glossary.
type RGBA struct {
	R, G, B, A uint8
}

// Colorless reports whether c is the all-zero "no color" sentinel.
func (c RGBA) Colorless() bool {
	return c.R == 0 && c.G == 0 && c.B == 0 && c.A == 0
}

// BlockRecord is one scanned column's topmost mapped block.
type BlockRecord struct {
	X, Y, Z    int
	TypeID     string
	MapColor   RGBA
	WaterDepth *int // nil when absent; if set, must be >= 1.
}

// IsWater reports whether the record carries a positive water depth.
func (b BlockRecord) IsWater() bool {
	return b.WaterDepth != nil && *b.WaterDepth > 0
}

// Validate checks a BlockRecord's invariants in isolation (type id
// non-empty, water depth positive when present).
func (b BlockRecord) Validate() error {
	if b.TypeID == "" {
		return fmt.Errorf("wire: block record missing type id")
	}
	if b.WaterDepth != nil && *b.WaterDepth < 1 {
		return fmt.Errorf("wire: block record waterDepth must be >= 1 when present, got %d", *b.WaterDepth)
	}
	return nil
}

// ChunkPayload is a single scanned chunk column and its blocks.
type ChunkPayload struct {
	Dimension coord.Dimension
	ChunkX    int
	ChunkZ    int
	Blocks    []BlockRecord
}

// Validate checks the ChunkPayload invariant that every block lies within the
// chunk's 16x16 column (spec.md §3).
func (p ChunkPayload) Validate() error {
	if !p.Dimension.Valid() {
		return fmt.Errorf("wire: chunk payload has invalid dimension %q", p.Dimension)
	}
	col := coord.ChunkCoord{X: p.ChunkX, Z: p.ChunkZ}
	for i, b := range p.Blocks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("wire: chunk payload block %d: %w", i, err)
		}
		if !col.Contains(b.X, b.Z) {
			return fmt.Errorf("wire: chunk payload block %d at (%d,%d) outside chunk (%d,%d)", i, b.X, b.Z, p.ChunkX, p.ChunkZ)
		}
	}
	return nil
}

// BlockChange is one `/world/blocks` event. It is accepted and acknowledged
// but, per spec.md §4.8 and §9, MUST NOT trigger a tile delete: the agent
// always follows it with a small area-scan chunk payload.
type BlockChange struct {
	Dimension    coord.Dimension
	X, Y, Z      int
	BlockType    string
	PreviousType string // optional
	Player       string // optional
	Timestamp    int64
}

// Validate checks BlockChange's required fields.
func (c BlockChange) Validate() error {
	if !c.Dimension.Valid() {
		return fmt.Errorf("wire: block change has invalid dimension %q", c.Dimension)
	}
	if c.BlockType == "" {
		return fmt.Errorf("wire: block change missing blockType")
	}
	return nil
}

// PlayerStats is an opaque bag of gameplay stats carried on player refresh
// events; the server never interprets it.
type PlayerStats map[string]any

// PlayerSnapshot is one player's refreshed position, per `/world/players`.
type PlayerSnapshot struct {
	Name       string
	X, Y, Z    float64
	Dimension  coord.Dimension
	PlayfabID  string
	Stats      PlayerStats
}

// Validate checks PlayerSnapshot's required fields.
func (p PlayerSnapshot) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("wire: player snapshot missing name")
	}
	if !p.Dimension.Valid() {
		return fmt.Errorf("wire: player snapshot has invalid dimension %q", p.Dimension)
	}
	return nil
}

// Extents is a structure's block-coordinate bounding box.
type Extents struct {
	MinX, MaxX, MinZ, MaxZ int
}

// Validate checks the box ordering invariant (spec.md §3).
func (e Extents) Validate() error {
	if e.MinX > e.MaxX || e.MinZ > e.MaxZ {
		return fmt.Errorf("wire: extents out of order: %+v", e)
	}
	return nil
}

// StructureReport is one discovered-structure payload, per
// `/world/structures`.
type StructureReport struct {
	StructureType string
	X, Y, Z       int
	Dimension     coord.Dimension
	Extents       Extents
	DiscoveredAt  int64 // unix millis
}

// Validate checks StructureReport's required fields.
func (s StructureReport) Validate() error {
	if s.StructureType == "" {
		return fmt.Errorf("wire: structure report missing structureType")
	}
	if !s.Dimension.Valid() {
		return fmt.Errorf("wire: structure report has invalid dimension %q", s.Dimension)
	}
	return s.Extents.Validate()
}

// QueueStatus mirrors the Job Processor's progress-reporting payload,
// posted to `/world/queue/status`.
type QueueStatus struct {
	QueueSize         int
	CompletedCount    int
	TotalCount        int
	CompletionPercent float64
	EtaMs             *int64
	AvgJobTimeMs      *float64
	IsProcessing      bool
}
