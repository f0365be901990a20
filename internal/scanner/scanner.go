// Package scanner implements the agent-side Surface Scanner of spec.md
// §4.2: a per-column downward ray to the topmost mapped block, with
// dimension-specific scan-start policy and water-depth computation.
package scanner

import (
	"log/slog"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/wire"
	"github.com/go-gl/mathgl/mgl64"
)

// BlockInfo is everything the scanner needs to know about one block, as
// reported by the host world runtime (an out-of-scope external
// collaborator per spec.md §1).
type BlockInfo struct {
	TypeID   string
	MapColor wire.RGBA
	Air      bool
	Water    bool
}

// Colorless reports whether the block carries no map color (the all-zero
// RGBA sentinel).
func (b BlockInfo) Colorless() bool {
	return b.MapColor.Colorless()
}

// WorldView is the read-only slice of the host world runtime the scanner
// depends on. It is implemented by the real game runtime in production and
// by an in-memory fake in tests.
type WorldView interface {
	// BlockAt returns the block at an absolute world position. An error
	// models a TransientRuntime failure (e.g. an unloaded neighbor); the
	// scanner swallows it and omits the column.
	BlockAt(dim coord.Dimension, x, y, z int) (BlockInfo, error)
}

// Scanner casts the downward ray described in spec.md §4.2.
type Scanner struct {
	world WorldView
	log   *slog.Logger
}

// New constructs a Scanner over the given world view.
func New(world WorldView, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{world: world, log: log}
}

// ScanChunk scans the full 16x16 column at (chunkX, chunkZ), per spec.md
// §4.2's "Cartesian product over dx, dz in [0,16)".
func (s *Scanner) ScanChunk(dim coord.Dimension, chunkX, chunkZ int) wire.ChunkPayload {
	payload := wire.ChunkPayload{Dimension: dim, ChunkX: chunkX, ChunkZ: chunkZ}
	ox, oz := chunkX*coord.ChunkSize, chunkZ*coord.ChunkSize
	for dx := 0; dx < coord.ChunkSize; dx++ {
		for dz := 0; dz < coord.ChunkSize; dz++ {
			if rec, ok := s.ScanColumn(dim, ox+dx, oz+dz); ok {
				payload.Blocks = append(payload.Blocks, rec)
			}
		}
	}
	return payload
}

// ScanArea scans the (2*radius+1)^2 square of columns centered on
// (centerX, centerZ), both in block coordinates. Used for area scans.
func (s *Scanner) ScanArea(dim coord.Dimension, centerX, centerZ, radius int) []wire.BlockRecord {
	var records []wire.BlockRecord
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if rec, ok := s.ScanColumn(dim, centerX+dx, centerZ+dz); ok {
				records = append(records, rec)
			}
		}
	}
	return records
}

// ScanColumn performs the per-column procedure of spec.md §4.2. The second
// return is false if the column yielded no block (swallowed failure, a
// fully-air column, or a nether column with no empty block under the
// ceiling).
func (s *Scanner) ScanColumn(dim coord.Dimension, worldX, worldZ int) (wire.BlockRecord, bool) {
	minY, maxY := dim.MinY(), dim.MaxY()

	startY, ok := s.startY(dim, worldX, worldZ)
	if !ok {
		return wire.BlockRecord{}, false
	}

	// The ray origin/direction per spec.md §4.2 step 2; kept as an explicit
	// mgl64 ray even though only the Y-stepping matters today, since the
	// origin offset (+0.5 on both horizontal axes) is the contract the host
	// runtime's raycast API expects.
	origin := mgl64.Vec3{float64(worldX) + 0.5, float64(startY), float64(worldZ) + 0.5}
	direction := mgl64.Vec3{0, -1, 0}
	maxDistance := startY - minY + 1

	hitY, ok := s.castRay(dim, worldX, worldZ, origin, direction, maxDistance)
	if !ok {
		return wire.BlockRecord{}, false
	}

	for y := hitY; y >= minY; y-- {
		info, err := s.world.BlockAt(dim, worldX, y, worldZ)
		if err != nil {
			s.log.Debug("scanner: transient runtime error, skipping column", "x", worldX, "z", worldZ, "err", err)
			return wire.BlockRecord{}, false
		}
		if info.Colorless() {
			continue
		}

		rec := wire.BlockRecord{X: worldX, Y: y, Z: worldZ, TypeID: info.TypeID, MapColor: info.MapColor}
		if info.Water {
			if depth := s.waterDepth(dim, worldX, y, worldZ); depth > 0 {
				rec.WaterDepth = &depth
			}
		}
		return rec, true
	}
	return wire.BlockRecord{}, false
}

// startY resolves the dimension's scan-start policy.
func (s *Scanner) startY(dim coord.Dimension, worldX, worldZ int) (int, bool) {
	if dim.StartPolicy() == coord.FromMaxHeight {
		return dim.MaxY(), true
	}
	for y := dim.MaxY(); y >= dim.MinY(); y-- {
		info, err := s.world.BlockAt(dim, worldX, y, worldZ)
		if err != nil {
			return 0, false
		}
		if info.Air {
			return y, true
		}
	}
	return 0, false
}

// castRay steps down from origin's Y until it finds the first non-air
// block, or exhausts maxDistance. direction is always straight down; it is
// accepted as a parameter to keep the signature honest about what a real
// raycast API takes.
func (s *Scanner) castRay(dim coord.Dimension, worldX, worldZ int, origin, direction mgl64.Vec3, maxDistance int) (int, bool) {
	_ = direction
	startY := int(origin.Y())
	minY := startY - maxDistance + 1
	for y := startY; y >= minY; y-- {
		info, err := s.world.BlockAt(dim, worldX, y, worldZ)
		if err != nil {
			return 0, false
		}
		if !info.Air {
			return y, true
		}
	}
	return 0, false
}

// waterDepth counts consecutive water blocks downward from (startY
// inclusive), per spec.md §4.2 step 4.
func (s *Scanner) waterDepth(dim coord.Dimension, worldX, startY, worldZ int) int {
	depth := 0
	for y := startY; y >= dim.MinY(); y-- {
		info, err := s.world.BlockAt(dim, worldX, y, worldZ)
		if err != nil || !info.Water {
			break
		}
		depth++
	}
	return depth
}
