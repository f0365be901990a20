package jobqueue

import (
	"testing"

	"github.com/df-mc/mapcarta/internal/coord"
)

// Property #1: enqueueing a job whose key already has a pending entry never
// grows the queue; it either leaves the existing job alone or upgrades its
// priority in place.
func TestEnqueueDedup(t *testing.T) {
	q := New(nil)
	q.EnqueueFullChunk(coord.Overworld, 3, 4, EnqueueOpts{})
	q.EnqueueFullChunk(coord.Overworld, 3, 4, EnqueueOpts{})
	if got := q.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 after duplicate enqueue", got)
	}
}

// Property #1 (upgrade half): a duplicate enqueue at a higher priority
// (lower numeric value) replaces the pending job's priority; a duplicate at
// a lower priority is a no-op.
func TestEnqueueDedupUpgradesPriority(t *testing.T) {
	q := New(nil)
	low := Low
	high := High
	q.EnqueueFullChunk(coord.Overworld, 1, 1, EnqueueOpts{Priority: &low})
	q.EnqueueFullChunk(coord.Overworld, 1, 1, EnqueueOpts{Priority: &high})

	job, ok := q.Take()
	if !ok {
		t.Fatal("Take() returned no job")
	}
	if job.Priority != High {
		t.Fatalf("Priority = %v, want High after upgrade", job.Priority)
	}

	q2 := New(nil)
	q2.EnqueueFullChunk(coord.Overworld, 1, 1, EnqueueOpts{Priority: &high})
	q2.EnqueueFullChunk(coord.Overworld, 1, 1, EnqueueOpts{Priority: &low})
	job2, _ := q2.Take()
	if job2.Priority != High {
		t.Fatalf("Priority = %v, want High preserved (no downgrade)", job2.Priority)
	}
}

// Property #2: Take always returns jobs in (priority asc, createdAt asc)
// order.
func TestTakeOrdersByPriorityThenAge(t *testing.T) {
	q := New(nil)
	normal := Normal
	low := Low
	imm := Immediate
	q.EnqueueFullChunk(coord.Overworld, 0, 0, EnqueueOpts{Priority: &low})
	q.EnqueueFullChunk(coord.Overworld, 1, 0, EnqueueOpts{Priority: &normal})
	q.EnqueueFullChunk(coord.Overworld, 2, 0, EnqueueOpts{Priority: &imm})
	q.EnqueueFullChunk(coord.Overworld, 3, 0, EnqueueOpts{Priority: &normal})

	var order []Priority
	for {
		job, ok := q.Take()
		if !ok {
			break
		}
		order = append(order, job.Priority)
	}
	want := []Priority{Immediate, Normal, Normal, Low}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

// Property #3: Resort only ever promotes a job toward the player (never
// raises its priority number), and never invents a promotion the proximity
// table doesn't justify.
func TestResortPromotesTowardPlayersMonotonically(t *testing.T) {
	q := New(nil)
	lowP := Low
	q.EnqueueAreaScan(coord.Overworld, 0, 0, 0, EnqueueOpts{Priority: &lowP})  // distance 0 -> High
	q.EnqueueAreaScan(coord.Overworld, 4, 0, 0, EnqueueOpts{Priority: &lowP}) // distance 4 -> Normal
	q.EnqueueAreaScan(coord.Overworld, 9, 9, 0, EnqueueOpts{Priority: &lowP}) // far -> unchanged

	locator := staticLocator{coord.Overworld: {{X: 0, Z: 0}}}
	q.Resort(locator)

	got := map[string]Priority{}
	for {
		job, ok := q.Take()
		if !ok {
			break
		}
		got[job.Key()] = job.Priority
	}
	if p := got["area:overworld:0:0:0"]; p != High {
		t.Errorf("nearest job priority = %v, want High", p)
	}
	if p := got["area:overworld:4:0:0"]; p != Normal {
		t.Errorf("mid job priority = %v, want Normal", p)
	}
	if p := got["area:overworld:9:9:0"]; p != Low {
		t.Errorf("far job priority = %v, want unchanged Low", p)
	}
}

// Resort never downgrades a job that is already at or above (numerically
// below) the priority its proximity would assign.
func TestResortNeverDowngrades(t *testing.T) {
	q := New(nil)
	q.EnqueueAreaScan(coord.Overworld, 9, 9, 0, EnqueueOpts{}) // default Immediate
	locator := staticLocator{coord.Overworld: {{X: 0, Z: 0}}}
	q.Resort(locator)

	job, _ := q.Take()
	if job.Priority != Immediate {
		t.Fatalf("Priority = %v, want Immediate preserved", job.Priority)
	}
}

type staticLocator map[coord.Dimension][]coord.ChunkCoord

func (s staticLocator) ChunkPositionsByDimension() map[coord.Dimension][]coord.ChunkCoord {
	return s
}

// Scenario S1: a player moving triggers an AreaScan job around them; a
// second move nearby before the first is processed must not duplicate the
// job, only possibly upgrade its priority.
func TestScenarioS1PlayerMovementDedup(t *testing.T) {
	q := New(nil)
	q.EnqueueAreaScan(coord.Overworld, 10, 10, 2, EnqueueOpts{SourcePlayer: "Steve"})
	q.EnqueueAreaScan(coord.Overworld, 10, 10, 2, EnqueueOpts{SourcePlayer: "Steve"})

	if got := q.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

// Scenario S2: enqueueing a full-chunk backlog and an immediate area scan
// around the player, the area scan must drain first regardless of
// insertion order.
func TestScenarioS2ImmediateScanJumpsBacklog(t *testing.T) {
	q := New(nil)
	for i := 0; i < 5; i++ {
		q.EnqueueFullChunk(coord.Overworld, i, 0, EnqueueOpts{})
	}
	q.EnqueueAreaScan(coord.Overworld, 100, 100, 1, EnqueueOpts{})

	job, ok := q.Take()
	if !ok {
		t.Fatal("Take() returned no job")
	}
	if job.Kind != AreaScan || job.Priority != Immediate {
		t.Fatalf("first job = %+v, want the Immediate area scan", job)
	}
}

func TestJobRectangleMatchesCenterAndSize(t *testing.T) {
	j := Job{Kind: AreaScan, CenterX: 2, CenterZ: 3, Radius: 1}
	minX, minZ, maxX, maxZ := j.Rectangle()
	wantSpan := 3 * coord.ChunkSize // (2*1+1) chunks wide
	if maxX-minX+1 != wantSpan || maxZ-minZ+1 != wantSpan {
		t.Fatalf("rectangle span = %d x %d, want %d x %d", maxX-minX+1, maxZ-minZ+1, wantSpan, wantSpan)
	}
	center := j.Center()
	centerBlockX := center.X * coord.ChunkSize
	if centerBlockX < minX || centerBlockX > maxX {
		t.Fatalf("rectangle [%d,%d] does not contain center block x=%d", minX, maxX, centerBlockX)
	}
}

func TestQueueClearedOnTake(t *testing.T) {
	q := New(nil)
	q.EnqueueFullChunk(coord.Overworld, 0, 0, EnqueueOpts{})
	if _, ok := q.Take(); !ok {
		t.Fatal("expected a job")
	}
	if q.IsQueued(coord.Overworld, 0, 0) {
		t.Fatal("job should no longer be queued after Take")
	}
}
