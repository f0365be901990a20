// Package ingestion implements the server-side Ingestion Pipeline of
// spec.md §4.8: grouping incoming chunk payloads by target tile, driving
// the Tile Compositor under the per-tile lock, and reporting which tiles
// changed.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/df-mc/mapcarta/internal/compositor"
	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/tilestore"
	"github.com/df-mc/mapcarta/internal/wire"
	"golang.org/x/sync/errgroup"
)

// mapTypes lists the map types painted from a block-record chunk payload.
// mapDensity is excluded: spec.md §6 defines no wire shape carrying
// per-column density, so it is never produced by chunk ingestion (see
// internal/compositor.CompositeDensity and DESIGN.md).
var mapTypes = []coord.MapType{coord.MapBlock, coord.MapHeight}

// tileTask accumulates the blocks that land on one (dimension, zoom,
// tileX, tileZ) across all payloads in a batch.
type tileTask struct {
	coord  coord.TileCoord // MapType left zero; set per mapType when run
	blocks []wire.BlockRecord
}

// Pipeline drives chunk ingestion against a Tile Store.
type Pipeline struct {
	tiles *tilestore.Store
	log   *slog.Logger
}

// New constructs a Pipeline over the given Tile Store.
func New(tiles *tilestore.Store, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{tiles: tiles, log: log}
}

// IngestChunks implements spec.md §4.8's chunk ingestion: for each payload
// and each zoom 0..7, group blocks by target tile, then composite and write
// every (tile, mapType) under its lock. Returns every TileCoord written,
// even when some tile tasks fail — a single bad tile must not fail the
// whole batch (spec.md §7).
func (p *Pipeline) IngestChunks(ctx context.Context, payloads []wire.ChunkPayload) ([]coord.TileCoord, error) {
	tasks := make(map[coord.TileCoord]*tileTask)
	for _, payload := range payloads {
		for zoom := 0; zoom <= coord.MaxZoom; zoom++ {
			tx, tz := coord.BlockToTile(payload.ChunkX*coord.ChunkSize, payload.ChunkZ*coord.ChunkSize, zoom)
			key := coord.TileCoord{Dimension: payload.Dimension, Zoom: zoom, X: tx, Z: tz}
			t, ok := tasks[key]
			if !ok {
				t = &tileTask{coord: key}
				tasks[key] = t
			}
			t.blocks = append(t.blocks, payload.Blocks...)
		}
	}

	type job struct {
		coord   coord.TileCoord
		mapType coord.MapType
		blocks  []wire.BlockRecord
	}
	var jobs []job
	for _, t := range tasks {
		for _, mt := range mapTypes {
			jobs = append(jobs, job{coord: t.coord, mapType: mt, blocks: t.blocks})
		}
	}

	written := make([]coord.TileCoord, len(jobs))
	ok := make([]bool, len(jobs))

	var g errgroup.Group
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			target := coord.TileCoord{Dimension: j.coord.Dimension, MapType: j.mapType, Zoom: j.coord.Zoom, X: j.coord.X, Z: j.coord.Z}
			if err := p.compositeOne(target, j.blocks); err != nil {
				p.log.Error("ingestion: tile task failed", "tile", target, "err", err)
				return nil
			}
			written[i] = target
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingestion: batch failed: %w", err)
	}

	result := written[:0]
	for i, w := range written {
		if ok[i] {
			result = append(result, w)
		}
	}
	return result, nil
}

// compositeOne acquires the target tile's lock, composites it against the
// collected blocks, and writes the result back.
func (p *Pipeline) compositeOne(target coord.TileCoord, blocks []wire.BlockRecord) error {
	release := p.tiles.Lock(target)
	defer release()

	previous, _, err := p.tiles.Read(target)
	if err != nil {
		return fmt.Errorf("read existing tile: %w", err)
	}

	var next []byte
	switch target.MapType {
	case coord.MapHeight:
		next, err = compositor.CompositeHeight(previous, blocks, target, target.Dimension)
	default:
		next, err = compositor.CompositeBlock(previous, blocks, target)
	}
	if err != nil {
		return fmt.Errorf("composite: %w", err)
	}

	if err := p.tiles.Write(target, next); err != nil {
		return fmt.Errorf("write tile: %w", err)
	}
	return nil
}

// IngestBlockChange validates a block-change event. Per spec.md §4.8 and
// §9, block changes are accepted and acknowledged but never delete tiles:
// the agent always follows a block change with a small area-scan chunk
// payload, so deleting the (large) tile would briefly leave nearly-black
// pixels. The chosen behavior is this one; see SPEC_FULL.md's Open Question
// Decisions.
func (p *Pipeline) IngestBlockChange(change wire.BlockChange) error {
	if err := change.Validate(); err != nil {
		return fmt.Errorf("ingestion: invalid block change: %w", err)
	}
	return nil
}
