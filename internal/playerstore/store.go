// Package playerstore holds the last-reported position of each connected
// player, the minimal ambient state spec.md §4.3's queue-resort proximity
// check and the /world/players handler both need.
package playerstore

import (
	"math"
	"sync"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/wire"
)

// Store is a concurrency-safe map of player name to last-known snapshot.
type Store struct {
	mu      sync.RWMutex
	players map[string]wire.PlayerSnapshot
}

// New constructs an empty Store.
func New() *Store {
	return &Store{players: make(map[string]wire.PlayerSnapshot)}
}

// Upsert records or replaces a player's snapshot.
func (s *Store) Upsert(p wire.PlayerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.Name] = p
}

// UpsertBatch records or replaces every snapshot in ps.
func (s *Store) UpsertBatch(ps []wire.PlayerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		s.players[p.Name] = p
	}
}

// Remove drops a player, e.g. on disconnect.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, name)
}

// Get returns a player's last-known snapshot.
func (s *Store) Get(name string) (wire.PlayerSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[name]
	return p, ok
}

// All returns a snapshot of every tracked player.
func (s *Store) All() []wire.PlayerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]wire.PlayerSnapshot, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	return out
}

// ChunkPositionsByDimension implements jobqueue.PlayerLocator: it groups
// every tracked player's current chunk position by dimension, for proximity
// resort of the scan queue (spec.md §4.3).
func (s *Store) ChunkPositionsByDimension() map[coord.Dimension][]coord.ChunkCoord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[coord.Dimension][]coord.ChunkCoord)
	for _, p := range s.players {
		block := coord.BlockCoord{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y)), Z: int(math.Floor(p.Z))}
		out[p.Dimension] = append(out[p.Dimension], block.Column())
	}
	return out
}
