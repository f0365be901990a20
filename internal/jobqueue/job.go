// Package jobqueue implements the agent-side prioritized, deduplicated job
// queue described in spec.md §4.3: a binary-search ordered sequence of Jobs
// with a dedup-key index, dynamic proximity-based re-sort, and priority
// upgrade on duplicate insert.
package jobqueue

import (
	"fmt"
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/google/uuid"
)

// Priority orders jobs; lower numeric value runs first.
type Priority int

const (
	Immediate Priority = 0
	High      Priority = 1
	Normal    Priority = 2
	Low       Priority = 3
)

// Kind discriminates the two job shapes the queue carries.
type Kind int

const (
	FullChunk Kind = iota
	AreaScan
)

// Job is a pending scan task. Key uniquely identifies its spatial target;
// the queue enforces at most one pending Job per key.
type Job struct {
	ID           uuid.UUID
	Kind         Kind
	Dimension    coord.Dimension
	Priority     Priority
	CreatedAt    time.Time
	SourcePlayer string // optional

	// FullChunk fields.
	ChunkX, ChunkZ int

	// AreaScan fields.
	CenterX, CenterZ, Radius int
}

// Key returns the job's dedup key, per spec.md §4.3:
// "chunk:<dim>:<cx>:<cz>" or "area:<dim>:<cx>:<cz>:<r>".
func (j Job) Key() string {
	switch j.Kind {
	case FullChunk:
		return fmt.Sprintf("chunk:%s:%d:%d", j.Dimension, j.ChunkX, j.ChunkZ)
	case AreaScan:
		return fmt.Sprintf("area:%s:%d:%d:%d", j.Dimension, j.CenterX, j.CenterZ, j.Radius)
	default:
		panic("jobqueue: unknown job kind")
	}
}

// Center returns the chunk coordinate the job is anchored at, used by
// resort's proximity calculation.
func (j Job) Center() coord.ChunkCoord {
	switch j.Kind {
	case FullChunk:
		return coord.ChunkCoord{X: j.ChunkX, Z: j.ChunkZ}
	default:
		return coord.ChunkCoord{X: j.CenterX, Z: j.CenterZ}
	}
}

// Rectangle returns the block-coordinate rectangle the job covers, the shape
// a LoadArea must be acquired for (spec.md §4.4 step 3).
func (j Job) Rectangle() (minX, minZ, maxX, maxZ int) {
	switch j.Kind {
	case FullChunk:
		ox, oz := j.ChunkX*coord.ChunkSize, j.ChunkZ*coord.ChunkSize
		return ox, oz, ox + coord.ChunkSize - 1, oz + coord.ChunkSize - 1
	default:
		ox, oz := j.CenterX*coord.ChunkSize, j.CenterZ*coord.ChunkSize
		span := (2*j.Radius + 1) * coord.ChunkSize
		half := j.Radius * coord.ChunkSize
		return ox - half, oz - half, ox - half + span - 1, oz - half + span - 1
	}
}

// compare orders jobs by (priority asc, createdAt asc), per spec.md §4.3.
func compare(a, b Job) int {
	if a.Priority != b.Priority {
		return int(a.Priority) - int(b.Priority)
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
