// Package tilestore implements the server-side Tile Store of spec.md §4.7:
// a content-addressed on-disk PNG layout keyed by
// (dimension, mapType, zoom, x, z), with atomic read/write primitives, plus
// the per-tile lock of spec.md §4.9.
package tilestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/df-mc/mapcarta/internal/coord"
)

// Store is a filesystem-backed tile store rooted at dataDir/tiles.
type Store struct {
	root string
	lock *lockTable
}

// New constructs a Store rooted at dataDir/tiles.
func New(dataDir string) *Store {
	return &Store{root: filepath.Join(dataDir, "tiles"), lock: newLockTable()}
}

// Path returns the on-disk path for a tile, per spec.md §4.7's layout:
// {dataDir}/tiles/{dimension}/{mapType}/{zoom}/{x}/{z}.png
func (s *Store) Path(t coord.TileCoord) string {
	return filepath.Join(s.root, string(t.Dimension), string(t.MapType),
		fmt.Sprint(t.Zoom), fmt.Sprint(t.X), fmt.Sprint(t.Z)+".png")
}

// Exists reports whether a tile file is present.
func (s *Store) Exists(t coord.TileCoord) bool {
	_, err := os.Stat(s.Path(t))
	return err == nil
}

// Read returns a tile's bytes, or (nil, false) if absent.
func (s *Store) Read(t coord.TileCoord) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(t))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("tilestore: read %s: %w", t, err)
	}
	return data, true, nil
}

// Write atomically replaces a tile's bytes: write to a sibling temp file,
// then rename over the destination, per spec.md §4.7 and §9. Intermediate
// directories are created as needed.
func (s *Store) Write(t coord.TileCoord, data []byte) error {
	path := s.Path(t)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tilestore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tile-*.tmp")
	if err != nil {
		return fmt.Errorf("tilestore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("tilestore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("tilestore: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("tilestore: rename into place: %w", err)
	}
	return nil
}

// Delete removes a tile file, if present.
func (s *Store) Delete(t coord.TileCoord) error {
	err := os.Remove(s.Path(t))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("tilestore: delete %s: %w", t, err)
	}
	return nil
}

// ClearAll removes the entire tiles tree and recreates its root directory.
// It is an administrative operation; per spec.md §5, a clear() followed by
// a new Write for the same coordinate must leave the new tile surviving.
// Because Write always recreates its own destination directory and lock
// acquisition serializes with any concurrent composite for the same tile,
// a write that starts after ClearAll's rename-away completes is never lost.
func (s *Store) ClearAll() error {
	tmp := s.root + ".removing"
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("tilestore: clear stale temp root: %w", err)
	}
	if err := os.Rename(s.root, tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("tilestore: move aside tiles root: %w", err)
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("tilestore: recreate tiles root: %w", err)
	}
	return os.RemoveAll(tmp)
}

// BlockToTile delegates to coord.BlockToTile, exposed here so callers that
// only import tilestore don't also need the coord package for this one
// computation.
func (s *Store) BlockToTile(blockX, blockZ, zoom int) (x, z int) {
	return coord.BlockToTile(blockX, blockZ, zoom)
}

// Lock acquires the per-tile lock for t, per spec.md §4.9, and returns a
// release function. Acquire blocks until any in-flight holder releases.
func (s *Store) Lock(t coord.TileCoord) func() {
	return s.lock.acquire(t.String())
}
