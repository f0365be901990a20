package structure

import (
	"fmt"
	"sync"
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
)

// maxFloodFillChunks caps a single structure's flood fill, per spec.md §4.5.
const maxFloodFillChunks = 100

// Probe is the host world runtime's structure-lookup surface (an
// out-of-scope external collaborator per spec.md §1). StructureTypesAt
// returns the structure type names the runtime reports as present at the
// given chunk's center probe point.
type Probe interface {
	StructureTypesAt(dim coord.Dimension, chunkX, chunkZ int) []string
}

// Discoverer runs the flood-fill discovery procedure of spec.md §4.5 on
// full-chunk completion.
type Discoverer struct {
	probe Probe
}

// NewDiscoverer constructs a Discoverer over the given runtime probe.
func NewDiscoverer(probe Probe) *Discoverer {
	return &Discoverer{probe: probe}
}

// Discover queries the runtime at the chunk's center and flood-fills every
// returned structure type outward over 4-neighbor chunks, returning one
// Structure per discovered extent.
func (d *Discoverer) Discover(dim coord.Dimension, chunkX, chunkZ int) []Structure {
	types := d.probe.StructureTypesAt(dim, chunkX, chunkZ)
	now := time.Now()
	structures := make([]Structure, 0, len(types))
	for _, t := range types {
		structures = append(structures, d.floodFill(dim, t, chunkX, chunkZ, now))
	}
	return structures
}

// floodFill performs a capped BFS outward from (originX, originZ) over
// 4-neighbor chunks reporting the same structure type.
func (d *Discoverer) floodFill(dim coord.Dimension, structType string, originX, originZ int, now time.Time) Structure {
	origin := coord.ChunkCoord{X: originX, Z: originZ}
	visited := map[coord.ChunkCoord]struct{}{origin: {}}
	queue := []coord.ChunkCoord{origin}

	box := chunkBlockBox(origin)
	for len(queue) > 0 && len(visited) < maxFloodFillChunks {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range neighbors(cur) {
			if _, seen := visited[n]; seen {
				continue
			}
			if len(visited) >= maxFloodFillChunks {
				break
			}
			if !d.hasType(dim, structType, n) {
				continue
			}
			visited[n] = struct{}{}
			box = box.Union(chunkBlockBox(n))
			queue = append(queue, n)
		}
	}

	cx, cz := box.Center()
	return Structure{
		Type: structType, Dimension: dim,
		CenterX: cx, CenterY: 64, CenterZ: cz,
		Box: box, DiscoveredAt: now,
	}
}

func (d *Discoverer) hasType(dim coord.Dimension, structType string, c coord.ChunkCoord) bool {
	for _, t := range d.probe.StructureTypesAt(dim, c.X, c.Z) {
		if t == structType {
			return true
		}
	}
	return false
}

func neighbors(c coord.ChunkCoord) [4]coord.ChunkCoord {
	return [4]coord.ChunkCoord{
		{X: c.X + 1, Z: c.Z}, {X: c.X - 1, Z: c.Z},
		{X: c.X, Z: c.Z + 1}, {X: c.X, Z: c.Z - 1},
	}
}

func chunkBlockBox(c coord.ChunkCoord) BoundingBox {
	ox, oz := c.X*coord.ChunkSize, c.Z*coord.ChunkSize
	return BoundingBox{MinX: ox, MaxX: ox + coord.ChunkSize - 1, MinZ: oz, MaxZ: oz + coord.ChunkSize - 1}
}

// Registry deduplicates discovered structures by (type, dimension,
// center-chunk), per spec.md §4.5 step 3. It is the agent-side analogue of
// the server's per-dimension Structure Merger.
type Registry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Filter returns the subset of structs not already recorded, and records
// them as seen.
func (r *Registry) Filter(structs []Structure) []Structure {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make([]Structure, 0, len(structs))
	for _, s := range structs {
		centerChunk := coord.BlockCoord{X: s.CenterX, Z: s.CenterZ}.Column()
		key := fmt.Sprintf("%s:%s:%d:%d", s.Type, s.Dimension, centerChunk.X, centerChunk.Z)
		if _, ok := r.seen[key]; ok {
			continue
		}
		r.seen[key] = struct{}{}
		fresh = append(fresh, s)
	}
	return fresh
}
