// Package processor implements the agent-side Job Processor of spec.md
// §4.4: a cooperative per-tick loop that drains the Chunk Scan Scheduler's
// job queue, acquires LoadAreas, scans, and batches results for upload.
// The tick loop itself is grounded on the teacher's world ticker
// (server/world/tick.go's time.NewTicker-driven select loop).
package processor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/errs"
	"github.com/df-mc/mapcarta/internal/jobqueue"
	"github.com/df-mc/mapcarta/internal/scanner"
	"github.com/df-mc/mapcarta/internal/structure"
	"github.com/df-mc/mapcarta/internal/wire"
)

// Constants from spec.md §4.4.
const (
	processIntervalTicks     = 2
	maxJobsPerTick           = 1
	maxChunkLoadAttempts     = 10
	minBlocksThreshold       = 128
	statusUpdateIntervalJobs = 5
	statusUpdateMinInterval  = 2 * time.Second

	// tickInterval is the host scheduler's tick rate, matching the
	// teacher's 20-ticks-per-second world loop (server/world/tick.go).
	tickInterval = 50 * time.Millisecond
)

// Processor drives the job queue to completion, one job per eligible tick.
type Processor struct {
	log *slog.Logger

	queue      *jobqueue.Queue
	scanner    *scanner.Scanner
	discoverer *structure.Discoverer
	registry   *structure.Registry
	broker     LoadAreaBroker
	upload     UploadClient
	locator    jobqueue.PlayerLocator

	timing *TimingRing

	mu              sync.Mutex
	running         bool
	cancel          context.CancelFunc
	done            chan struct{}
	currentLoadArea LoadAreaHandle

	lastStatusAt      time.Time
	completedSinceLog int
}

// Config bundles Processor's collaborators.
type Config struct {
	Queue      *jobqueue.Queue
	Scanner    *scanner.Scanner
	Discoverer *structure.Discoverer
	Registry   *structure.Registry
	Broker     LoadAreaBroker
	Upload     UploadClient
	Locator    jobqueue.PlayerLocator
	Log        *slog.Logger
}

// New constructs a stopped Processor.
func New(cfg Config) *Processor {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		log: log, queue: cfg.Queue, scanner: cfg.Scanner, discoverer: cfg.Discoverer,
		registry: cfg.Registry, broker: cfg.Broker, upload: cfg.Upload, locator: cfg.Locator,
		timing: NewTimingRing(),
	}
}

// Start transitions Stopped -> Running and begins the tick loop. Calling
// Start while already running is a no-op, per spec.md §4.4's state machine.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	go p.tickLoop(runCtx)
}

// Stop transitions Running -> Stopped, releasing any held LoadArea, and
// blocks until the tick loop has exited.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// tickLoop mirrors the teacher's tickLoop: a time.Ticker-driven select that
// exits on context cancellation, counting scheduler ticks so work runs only
// every processIntervalTicks ticks.
func (p *Processor) tickLoop(ctx context.Context) {
	defer close(p.done)
	tc := time.NewTicker(tickInterval)
	defer tc.Stop()

	schedulerTick := 0
	for {
		select {
		case <-tc.C:
			schedulerTick++
			if schedulerTick%processIntervalTicks != 0 {
				continue
			}
			p.runTick(ctx)
		case <-ctx.Done():
			p.releaseCurrentLoadArea()
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		}
	}
}

// runTick executes up to maxJobsPerTick jobs, then submits any accumulated
// batches and resorts the queue if it has grown past threshold.
func (p *Processor) runTick(ctx context.Context) {
	var payloads []wire.ChunkPayload
	var discovered []structure.Structure

	for i := 0; i < maxJobsPerTick; i++ {
		job, ok := p.queue.Take()
		if !ok {
			break
		}
		p.queue.SetProcessing(true)
		jobPayloads, structs, err := p.processJob(ctx, job)
		p.queue.SetProcessing(false)
		if err != nil {
			p.log.Debug("processor: job produced no payload", "job", job.Key(), "err", err)
			continue
		}
		payloads = append(payloads, jobPayloads...)
		discovered = append(discovered, structs...)

		p.queue.RecordProcessed()
		p.completedSinceLog++
		p.maybeReportStatus(ctx)
	}

	if len(payloads) > 0 {
		if err := p.upload.UploadChunks(ctx, payloads); err != nil {
			p.log.Error("processor: upload chunks failed", "err", err)
		}
		p.queue.ResetBatch()
	}
	if len(discovered) > 0 {
		fresh := p.registry.Filter(discovered)
		if len(fresh) > 0 {
			if err := p.upload.UploadStructures(ctx, fresh); err != nil {
				p.log.Error("processor: upload structures failed", "err", err)
			}
		}
	}
	if p.queue.ShouldResort() {
		p.queue.Resort(p.locator)
	}
}

// processJob implements the per-job protocol of spec.md §4.4 steps 1-12.
// A nil payload slice with a non-nil error means the job produced nothing
// for this tick. On underload or load timeout the job has been re-enqueued
// at Low; on a LoadArea registration failure or cancellation it has not.
func (p *Processor) processJob(ctx context.Context, job jobqueue.Job) ([]wire.ChunkPayload, []structure.Structure, error) {
	start := time.Now()
	defer func() { p.timing.Record(time.Since(start)) }()

	if job.Priority != jobqueue.Immediate {
		minX, minZ, maxX, maxZ := job.Rectangle()
		handle, err := p.broker.RegisterLoadArea(job.Dimension, minX, minZ, maxX, maxZ)
		if err != nil {
			return nil, nil, err
		}
		p.setCurrentLoadArea(handle)
		defer p.releaseCurrentLoadArea()

		center := job.Center()
		loaded := false
		for attempt := 0; attempt < maxChunkLoadAttempts; attempt++ {
			if p.broker.IsChunkLoaded(job.Dimension, center.X, center.Z) {
				loaded = true
				break
			}
			select {
			case <-time.After(tickInterval):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}
		if !loaded {
			p.reenqueueLow(job)
			return nil, nil, errs.ErrTransientRuntime
		}
	}

	switch job.Kind {
	case jobqueue.FullChunk:
		payload := p.scanner.ScanChunk(job.Dimension, job.ChunkX, job.ChunkZ)
		if len(payload.Blocks) < minBlocksThreshold {
			p.reenqueueLow(job)
			return nil, nil, errs.ErrUnderload
		}
		var structs []structure.Structure
		if p.discoverer != nil {
			structs = p.discoverer.Discover(job.Dimension, job.ChunkX, job.ChunkZ)
		}
		return []wire.ChunkPayload{payload}, structs, nil
	default: // AreaScan
		minX, minZ, maxX, maxZ := job.Rectangle()
		byChunk := map[coord.ChunkCoord][]wire.BlockRecord{}
		for x := minX; x <= maxX; x++ {
			for z := minZ; z <= maxZ; z++ {
				rec, ok := p.scanner.ScanColumn(job.Dimension, x, z)
				if !ok {
					continue
				}
				col := coord.BlockCoord{X: x, Z: z}.Column()
				byChunk[col] = append(byChunk[col], rec)
			}
		}
		payloads := make([]wire.ChunkPayload, 0, len(byChunk))
		for col, blocks := range byChunk {
			payloads = append(payloads, wire.ChunkPayload{Dimension: job.Dimension, ChunkX: col.X, ChunkZ: col.Z, Blocks: blocks})
		}
		return payloads, nil, nil
	}
}

func (p *Processor) reenqueueLow(job jobqueue.Job) {
	low := jobqueue.Low
	opts := jobqueue.EnqueueOpts{Priority: &low, SourcePlayer: job.SourcePlayer}
	switch job.Kind {
	case jobqueue.FullChunk:
		p.queue.EnqueueFullChunk(job.Dimension, job.ChunkX, job.ChunkZ, opts)
	default:
		p.queue.EnqueueAreaScan(job.Dimension, job.CenterX, job.CenterZ, job.Radius, opts)
	}
}

func (p *Processor) setCurrentLoadArea(h LoadAreaHandle) {
	p.mu.Lock()
	p.currentLoadArea = h
	p.mu.Unlock()
}

func (p *Processor) releaseCurrentLoadArea() {
	p.mu.Lock()
	h := p.currentLoadArea
	p.currentLoadArea = nil
	p.mu.Unlock()
	if h != nil && p.broker != nil {
		p.broker.ReleaseLoadArea(h)
	}
}

// maybeReportStatus emits a queue-status update after every
// statusUpdateIntervalJobs completions, or when the queue drains, subject
// to the statusUpdateMinInterval floor, per spec.md §4.4 step 11.
func (p *Processor) maybeReportStatus(ctx context.Context) {
	drained := p.queue.Len() == 0
	if p.completedSinceLog < statusUpdateIntervalJobs && !drained {
		return
	}
	if time.Since(p.lastStatusAt) < statusUpdateMinInterval {
		return
	}
	p.completedSinceLog = 0
	p.lastStatusAt = time.Now()

	stats := p.queue.Stats()
	status := wire.QueueStatus{
		QueueSize:      stats.QueueSize,
		CompletedCount: stats.JobsProcessed,
		IsProcessing:   stats.IsProcessing,
	}
	if avg, ok := p.timing.AverageMs(); ok {
		status.AvgJobTimeMs = &avg
		eta := int64(avg) * int64(stats.QueueSize)
		status.EtaMs = &eta
	}
	if err := p.upload.UploadQueueStatus(ctx, status); err != nil {
		p.log.Error("processor: upload queue status failed", "err", err)
	}
}
