package structure

import (
	"testing"
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
)

type fakeProbe struct {
	types map[coord.ChunkCoord][]string
}

func (f fakeProbe) StructureTypesAt(dim coord.Dimension, chunkX, chunkZ int) []string {
	return f.types[coord.ChunkCoord{X: chunkX, Z: chunkZ}]
}

// Property #9: flood fill never visits more than maxFloodFillChunks chunks,
// even when every neighbor keeps reporting the same structure type.
func TestFloodFillBoundedChunkCount(t *testing.T) {
	probe := unboundedProbe{structType: "village"}
	d := NewDiscoverer(probe)

	got := d.floodFill(coord.Overworld, "village", 0, 0, time.Now())
	width := got.Box.MaxX - got.Box.MinX + 1
	height := got.Box.MaxZ - got.Box.MinZ + 1
	chunksCovered := (width / coord.ChunkSize) * (height / coord.ChunkSize)
	if chunksCovered > maxFloodFillChunks {
		t.Fatalf("flood fill box covers %d chunks, want <= %d", chunksCovered, maxFloodFillChunks)
	}
}

// unboundedProbe reports the same structure type along an entire row
// (z == 0), simulating a runtime with no natural boundary to the
// structure's extent. Restricting growth to one dimension keeps the
// resulting bounding box's chunk count exactly equal to the number of
// chunks flood fill actually visited, so the cap is checked precisely
// instead of via a diamond-shaped BFS frontier's looser bounding rectangle.
type unboundedProbe struct{ structType string }

func (u unboundedProbe) StructureTypesAt(dim coord.Dimension, chunkX, chunkZ int) []string {
	if chunkZ != 0 {
		return nil
	}
	return []string{u.structType}
}

func TestDiscoverReturnsOneStructurePerType(t *testing.T) {
	probe := fakeProbe{types: map[coord.ChunkCoord][]string{
		{X: 0, Z: 0}: {"village", "well"},
	}}
	d := NewDiscoverer(probe)
	got := d.Discover(coord.Overworld, 0, 0)
	if len(got) != 2 {
		t.Fatalf("Discover returned %d structures, want 2", len(got))
	}
}

func TestRegistryFilterDedupsByTypeAndCenterChunk(t *testing.T) {
	r := NewRegistry()
	s := Structure{Type: "village", Dimension: coord.Overworld, CenterX: 5, CenterZ: 5}
	first := r.Filter([]Structure{s})
	second := r.Filter([]Structure{s})
	if len(first) != 1 {
		t.Fatalf("first Filter = %d, want 1", len(first))
	}
	if len(second) != 0 {
		t.Fatalf("second Filter = %d, want 0 (already seen)", len(second))
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir(), nil)
	t.Cleanup(s.Close)
	return s
}

// Property #8: merging the same set of structures, regardless of insertion
// order, converges to the same set of stored boxes (commutative), and
// re-inserting an already-contained structure is a no-op (idempotent).
func TestMergeCommutativeAndIdempotent(t *testing.T) {
	a := Structure{Type: "village", Dimension: coord.Overworld, Box: BoundingBox{MinX: 0, MaxX: 15, MinZ: 0, MaxZ: 15}, DiscoveredAt: time.Unix(100, 0)}
	b := Structure{Type: "village", Dimension: coord.Overworld, Box: BoundingBox{MinX: 16, MaxX: 31, MinZ: 0, MaxZ: 15}, DiscoveredAt: time.Unix(50, 0)}

	s1 := newTestStore(t)
	s1.Insert(a)
	s1.Insert(b)

	s2 := newTestStore(t)
	s2.Insert(b)
	s2.Insert(a)

	got1 := s1.ByDimension(coord.Overworld)
	got2 := s2.ByDimension(coord.Overworld)
	if len(got1) != 1 || len(got2) != 1 {
		t.Fatalf("expected exactly one merged structure each way, got %d and %d", len(got1), len(got2))
	}
	if got1[0].Box != got2[0].Box {
		t.Fatalf("merge order changed the resulting box: %+v vs %+v", got1[0].Box, got2[0].Box)
	}
	// The merge keeps the earlier discoveredAt regardless of insertion order.
	if !got1[0].DiscoveredAt.Equal(time.Unix(50, 0)) || !got2[0].DiscoveredAt.Equal(time.Unix(50, 0)) {
		t.Fatalf("merged discoveredAt should be the earlier timestamp")
	}

	// Idempotence: re-inserting a structure fully contained by the merged
	// box changes nothing.
	s1.Insert(Structure{Type: "village", Dimension: coord.Overworld, Box: BoundingBox{MinX: 2, MaxX: 10, MinZ: 2, MaxZ: 10}})
	again := s1.ByDimension(coord.Overworld)
	if len(again) != 1 || again[0].Box != got1[0].Box {
		t.Fatalf("re-inserting a contained structure should be a no-op, got %+v", again)
	}
}

func TestMergeKeepsSeparateStructuresOfDifferentTypes(t *testing.T) {
	s := newTestStore(t)
	s.Insert(Structure{Type: "village", Dimension: coord.Overworld, Box: BoundingBox{MinX: 0, MaxX: 15, MinZ: 0, MaxZ: 15}})
	s.Insert(Structure{Type: "temple", Dimension: coord.Overworld, Box: BoundingBox{MinX: 0, MaxX: 15, MinZ: 0, MaxZ: 15}})
	got := s.ByDimension(coord.Overworld)
	if len(got) != 2 {
		t.Fatalf("different structure types should not merge, got %d entries", len(got))
	}
}

// Scenario S6: discovering the same structure from two adjacent chunk scans
// merges into a single reported structure per dimension, queryable back by
// dimension.
func TestScenarioS6AdjacentChunksMergeAndAreQueryable(t *testing.T) {
	probe := fakeProbe{types: map[coord.ChunkCoord][]string{
		{X: 0, Z: 0}: {"village"},
		{X: 1, Z: 0}: {"village"},
	}}
	d := NewDiscoverer(probe)
	store := newTestStore(t)

	for _, found := range d.Discover(coord.Overworld, 0, 0) {
		store.Insert(found)
	}
	for _, found := range d.Discover(coord.Overworld, 1, 0) {
		store.Insert(found)
	}

	got := store.ByDimension(coord.Overworld)
	if len(got) != 1 {
		t.Fatalf("adjacent-chunk discoveries of the same structure should merge into 1, got %d", len(got))
	}
	if got[0].Box.MaxX < coord.ChunkSize {
		t.Fatalf("merged box should span both chunks, got %+v", got[0].Box)
	}
}
