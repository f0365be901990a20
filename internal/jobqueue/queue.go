package jobqueue

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/google/uuid"
)

// resortThreshold triggers an automatic resort once the queue exceeds this
// many pending jobs after a processing tick, per spec.md §4.3.
const resortThreshold = 50

// proximityHighRadius and proximityNormalRadius are the chunk-distance
// thresholds resort() uses to promote jobs toward a nearby player.
const (
	proximityHighRadius   = 2
	proximityNormalRadius = 5
)

// EnqueueOpts customizes a single enqueue call.
type EnqueueOpts struct {
	// Priority overrides the kind's default priority when non-zero... but
	// Immediate is the zero value of Priority, so the override is carried
	// via a pointer to distinguish "not set" from "Immediate".
	Priority     *Priority
	SourcePlayer string
}

func (o EnqueueOpts) priorityOr(def Priority) Priority {
	if o.Priority != nil {
		return *o.Priority
	}
	return def
}

// PlayerLocator supplies the chunk positions of currently known players,
// grouped by dimension. resort() uses it to promote jobs near players. The
// concrete implementation (internal/playerstore) is an ambient collaborator
// outside the hard core.
type PlayerLocator interface {
	ChunkPositionsByDimension() map[coord.Dimension][]coord.ChunkCoord
}

// Stats is the snapshot returned by Queue.Stats.
type Stats struct {
	QueueSize        int
	ByPriority       map[Priority]int
	IsProcessing     bool
	JobsProcessed    int
	CurrentBatchSize int
}

// Queue is the agent-side prioritized, deduplicated job queue of spec.md
// §4.3. Its operations are documented as safe to call from any game-event
// callback on a single-threaded host runtime; the mutex here exists only to
// make the same guarantee hold if the host embeds Queue in a
// multi-goroutine program, and must never be held across a call back into
// the queue (no reentrant enqueue from inside job processing).
type Queue struct {
	log *slog.Logger

	mu      sync.Mutex
	jobs    []Job          // ordered by compare()
	pending map[string]int // dedup key -> index into jobs

	isProcessing     bool
	jobsProcessed    int
	currentBatchSize int
}

// New constructs an empty Queue.
func New(log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		log:     log,
		pending: make(map[string]int),
	}
}

// EnqueueFullChunk enqueues a FullChunk job. Default priority is Normal.
func (q *Queue) EnqueueFullChunk(dim coord.Dimension, chunkX, chunkZ int, opts EnqueueOpts) {
	q.enqueue(Job{
		ID: uuid.New(), Kind: FullChunk, Dimension: dim,
		Priority: opts.priorityOr(Normal), CreatedAt: time.Now(), SourcePlayer: opts.SourcePlayer,
		ChunkX: chunkX, ChunkZ: chunkZ,
	})
}

// EnqueueAreaScan enqueues an AreaScan job. Default priority is Immediate.
func (q *Queue) EnqueueAreaScan(dim coord.Dimension, centerX, centerZ, radius int, opts EnqueueOpts) {
	q.enqueue(Job{
		ID: uuid.New(), Kind: AreaScan, Dimension: dim,
		Priority: opts.priorityOr(Immediate), CreatedAt: time.Now(), SourcePlayer: opts.SourcePlayer,
		CenterX: centerX, CenterZ: centerZ, Radius: radius,
	})
}

// EnqueueMany enqueues a FullChunk job for each (chunkX, chunkZ) pair.
func (q *Queue) EnqueueMany(dim coord.Dimension, coords []coord.ChunkCoord, opts EnqueueOpts) {
	for _, c := range coords {
		q.EnqueueFullChunk(dim, c.X, c.Z, opts)
	}
}

// IsQueued reports whether a FullChunk job for (chunkX, chunkZ) is pending.
func (q *Queue) IsQueued(dim coord.Dimension, chunkX, chunkZ int) bool {
	key := Job{Kind: FullChunk, Dimension: dim, ChunkX: chunkX, ChunkZ: chunkZ}.Key()
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[key]
	return ok
}

// enqueue implements the dedup/insert/upgrade rule of spec.md §4.3.
func (q *Queue) enqueue(job Job) {
	key := job.Key()

	q.mu.Lock()
	defer q.mu.Unlock()

	if idx, ok := q.pending[key]; ok {
		existing := q.jobs[idx]
		if job.Priority < existing.Priority {
			q.jobs[idx].Priority = job.Priority
			q.resortLocked()
		}
		return
	}

	idx := sort.Search(len(q.jobs), func(i int) bool {
		return compare(q.jobs[i], job) > 0
	})
	q.jobs = append(q.jobs, Job{})
	copy(q.jobs[idx+1:], q.jobs[idx:])
	q.jobs[idx] = job
	q.reindexFromLocked(idx)
}

// reindexFromLocked refreshes q.pending for entries at or after idx, called
// after an insertion shifts indices. mu must be held.
func (q *Queue) reindexFromLocked(idx int) {
	for i := idx; i < len(q.jobs); i++ {
		q.pending[q.jobs[i].Key()] = i
	}
}

// Resort recomputes priority promotions by player proximity, then re-sorts.
// Promotions never decrease a job's priority number (never downgrade).
func (q *Queue) Resort(locator PlayerLocator) {
	var byDim map[coord.Dimension][]coord.ChunkCoord
	if locator != nil {
		byDim = locator.ChunkPositionsByDimension()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.jobs {
		players := byDim[q.jobs[i].Dimension]
		if len(players) == 0 {
			continue
		}
		nearest := nearestDistanceSq(q.jobs[i].Center(), players)
		switch {
		case nearest <= proximityHighRadius*proximityHighRadius && q.jobs[i].Priority > High:
			q.jobs[i].Priority = High
		case nearest <= proximityNormalRadius*proximityNormalRadius && q.jobs[i].Priority > Normal:
			q.jobs[i].Priority = Normal
		}
	}
	q.resortLocked()
}

func nearestDistanceSq(c coord.ChunkCoord, players []coord.ChunkCoord) int64 {
	best := int64(-1)
	for _, p := range players {
		d := c.DistanceSq(p)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// resortLocked re-sorts q.jobs by compare() and rebuilds the dedup index.
// mu must be held.
func (q *Queue) resortLocked() {
	sort.SliceStable(q.jobs, func(i, j int) bool {
		return compare(q.jobs[i], q.jobs[j]) < 0
	})
	for k := range q.pending {
		delete(q.pending, k)
	}
	q.reindexFromLocked(0)
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = q.jobs[:0]
	for k := range q.pending {
		delete(q.pending, k)
	}
}

// Take removes and returns the highest-priority job, if any. This is the
// Job Processor's only way to remove a job ahead of normal completion.
func (q *Queue) Take() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	delete(q.pending, job.Key())
	q.reindexFromLocked(0)
	return job, true
}

// Remove deletes the job with the given key, used when a job completes or is
// cancelled outside of Take.
func (q *Queue) Remove(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx, ok := q.pending[key]
	if !ok {
		return
	}
	q.jobs = append(q.jobs[:idx], q.jobs[idx+1:]...)
	delete(q.pending, key)
	q.reindexFromLocked(idx)
}

// Len reports the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// ShouldResort reports whether the queue has grown past the automatic
// resort threshold, checked by the processor at the end of a tick.
func (q *Queue) ShouldResort() bool {
	return q.Len() > resortThreshold
}

// SetProcessing records whether a processing tick is in flight, surfaced
// through Stats.
func (q *Queue) SetProcessing(v bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.isProcessing = v
}

// RecordProcessed increments the processed-job counter and the current
// batch's completed count.
func (q *Queue) RecordProcessed() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobsProcessed++
	q.currentBatchSize++
}

// ResetBatch zeroes the current-batch counter, called when a batch upload is
// submitted.
func (q *Queue) ResetBatch() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.currentBatchSize = 0
}

// Stats returns a snapshot of the queue's current state.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	byPriority := map[Priority]int{Immediate: 0, High: 0, Normal: 0, Low: 0}
	for _, j := range q.jobs {
		byPriority[j.Priority]++
	}
	return Stats{
		QueueSize:        len(q.jobs),
		ByPriority:       byPriority,
		IsProcessing:     q.isProcessing,
		JobsProcessed:    q.jobsProcessed,
		CurrentBatchSize: q.currentBatchSize,
	}
}
