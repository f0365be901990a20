package processor

import (
	"context"
	"testing"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/jobqueue"
	"github.com/df-mc/mapcarta/internal/scanner"
	"github.com/df-mc/mapcarta/internal/structure"
	"github.com/df-mc/mapcarta/internal/wire"
)

// sparseWorld reports every column as air, simulating a chunk with far
// fewer than minBlocksThreshold mapped blocks (an ocean void or an
// unloaded edge).
type sparseWorld struct{}

func (sparseWorld) BlockAt(dim coord.Dimension, x, y, z int) (scanner.BlockInfo, error) {
	return scanner.BlockInfo{Air: true}, nil
}

type alwaysLoadedBroker struct{}

func (alwaysLoadedBroker) RegisterLoadArea(dim coord.Dimension, minX, minZ, maxX, maxZ int) (LoadAreaHandle, error) {
	return struct{}{}, nil
}
func (alwaysLoadedBroker) IsChunkLoaded(dim coord.Dimension, chunkX, chunkZ int) bool { return true }
func (alwaysLoadedBroker) ReleaseLoadArea(h LoadAreaHandle)                           {}

type noopUpload struct{}

func (noopUpload) UploadChunks(ctx context.Context, payloads []wire.ChunkPayload) error   { return nil }
func (noopUpload) UploadStructures(ctx context.Context, structs []structure.Structure) error { return nil }
func (noopUpload) UploadQueueStatus(ctx context.Context, status wire.QueueStatus) error   { return nil }

func newTestProcessor() *Processor {
	queue := jobqueue.New(nil)
	scan := scanner.New(sparseWorld{}, nil)
	return New(Config{
		Queue:   queue,
		Scanner: scan,
		Broker:  alwaysLoadedBroker{},
		Upload:  noopUpload{},
	})
}

// Property #10: a FullChunk job that scans below minBlocksThreshold is
// treated as underload — it produces no payload and is re-enqueued at Low
// priority rather than being dropped.
func TestUnderloadJobReenqueuedAtLowPriority(t *testing.T) {
	p := newTestProcessor()
	job := jobqueue.Job{Kind: jobqueue.FullChunk, Dimension: coord.Overworld, Priority: jobqueue.Normal, ChunkX: 2, ChunkZ: 2}

	payloads, structs, err := p.processJob(context.Background(), job)
	if err == nil {
		t.Fatal("expected an underload error for a below-threshold scan")
	}
	if payloads != nil || structs != nil {
		t.Fatalf("underload job should produce no payload or structures, got payloads=%v structs=%v", payloads, structs)
	}

	requeued, ok := p.queue.Take()
	if !ok {
		t.Fatal("underload job was not re-enqueued")
	}
	if requeued.Priority != jobqueue.Low {
		t.Fatalf("re-enqueued priority = %v, want Low", requeued.Priority)
	}
	if requeued.ChunkX != 2 || requeued.ChunkZ != 2 {
		t.Fatalf("re-enqueued job target changed: %+v", requeued)
	}
}

// areaScanWorld reports a single colored column at (0,0,0) and air
// everywhere else, letting an AreaScan job over job.Rectangle() produce
// exactly one block record.
type areaScanWorld struct{}

func (areaScanWorld) BlockAt(dim coord.Dimension, x, y, z int) (scanner.BlockInfo, error) {
	if x == 0 && z == 0 && y == dim.MaxY() {
		return scanner.BlockInfo{TypeID: "stone", MapColor: wire.RGBA{R: 1, G: 1, B: 1}}, nil
	}
	return scanner.BlockInfo{Air: true}, nil
}

func TestAreaScanJobCoversExactlyItsRectangle(t *testing.T) {
	queue := jobqueue.New(nil)
	scan := scanner.New(areaScanWorld{}, nil)
	p := New(Config{Queue: queue, Scanner: scan, Broker: alwaysLoadedBroker{}, Upload: noopUpload{}})

	job := jobqueue.Job{Kind: jobqueue.AreaScan, Dimension: coord.Overworld, Priority: jobqueue.Immediate, CenterX: 0, CenterZ: 0, Radius: 0}
	payloads, _, err := p.processJob(context.Background(), job)
	if err != nil {
		t.Fatalf("processJob: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads, want exactly 1 (the single covered chunk)", len(payloads))
	}
	if len(payloads[0].Blocks) != 1 {
		t.Fatalf("payload has %d blocks, want exactly 1 (the single colored column)", len(payloads[0].Blocks))
	}
	if payloads[0].Blocks[0].X != 0 || payloads[0].Blocks[0].Z != 0 {
		t.Fatalf("scanned block at wrong position: %+v", payloads[0].Blocks[0])
	}
}

// multiChunkAreaWorld colors one column in each of two chunks far enough
// apart that a Radius > 0 area scan rectangle spans both.
type multiChunkAreaWorld struct{}

func (multiChunkAreaWorld) BlockAt(dim coord.Dimension, x, y, z int) (scanner.BlockInfo, error) {
	if y != dim.MaxY() {
		return scanner.BlockInfo{Air: true}, nil
	}
	if (x == 0 && z == 0) || (x == 32 && z == 32) {
		return scanner.BlockInfo{TypeID: "stone", MapColor: wire.RGBA{R: 1, G: 1, B: 1}}, nil
	}
	return scanner.BlockInfo{Air: true}, nil
}

// A Radius > 0 area scan must split its rectangle's blocks into one
// ChunkPayload per covered chunk, each anchored at that chunk's own
// coordinates, not a single payload anchored at the job's center chunk.
func TestAreaScanJobWithRadiusSplitsIntoPerChunkPayloads(t *testing.T) {
	queue := jobqueue.New(nil)
	scan := scanner.New(multiChunkAreaWorld{}, nil)
	p := New(Config{Queue: queue, Scanner: scan, Broker: alwaysLoadedBroker{}, Upload: noopUpload{}})

	job := jobqueue.Job{Kind: jobqueue.AreaScan, Dimension: coord.Overworld, Priority: jobqueue.Immediate, CenterX: 1, CenterZ: 1, Radius: 1}
	payloads, _, err := p.processJob(context.Background(), job)
	if err != nil {
		t.Fatalf("processJob: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d payloads, want 2 (one per chunk containing a colored column)", len(payloads))
	}
	for _, payload := range payloads {
		if len(payload.Blocks) != 1 {
			t.Fatalf("payload %+v has %d blocks, want exactly 1", payload, len(payload.Blocks))
		}
		col := coord.ChunkCoord{X: payload.ChunkX, Z: payload.ChunkZ}
		b := payload.Blocks[0]
		if !col.Contains(b.X, b.Z) {
			t.Fatalf("payload anchored at chunk %+v does not contain its own block at (%d,%d)", col, b.X, b.Z)
		}
	}
}
