package structure

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
)

// Store is the server-side Structure Merger of spec.md §4.10: an
// in-memory set of Structures per dimension, persisted best-effort as one
// JSON file per dimension, with overlap/adjacency merge on insert.
type Store struct {
	log     *slog.Logger
	dataDir string

	mu   sync.Mutex
	byDim map[coord.Dimension][]Structure

	writes chan coord.Dimension
	done   chan struct{}
}

// NewStore constructs a Store rooted at dataDir/structures and starts its
// async persistence worker. Call Close to stop it.
func NewStore(dataDir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		log:     log,
		dataDir: filepath.Join(dataDir, "structures"),
		byDim:   make(map[coord.Dimension][]Structure),
		writes:  make(chan coord.Dimension, 64),
		done:    make(chan struct{}),
	}
	go s.persistLoop()
	return s
}

// Close stops the persistence worker. Pending writes are allowed to drain;
// Close returns once the worker has exited.
func (s *Store) Close() {
	close(s.writes)
	<-s.done
}

// Insert merges one incoming structure into the store for its dimension,
// per spec.md §4.10:
//   - overlap or edge-adjacency with an existing same-type structure unions
//     the boxes, keeps the earlier discoveredAt, and replaces the stored one
//   - full containment by an existing box discards the incoming structure
//   - otherwise the structure is inserted as new
func (s *Store) Insert(in Structure) {
	s.mu.Lock()
	list := s.byDim[in.Dimension]

	merged := false
	for i, existing := range list {
		if existing.Type != in.Type {
			continue
		}
		if existing.Box.Contains(in.Box) {
			s.mu.Unlock()
			return
		}
		if existing.Box.OverlapsOrAdjacent(in.Box) {
			box := existing.Box.Union(in.Box)
			cx, cz := box.Center()
			discovered := existing.DiscoveredAt
			if in.DiscoveredAt.Before(discovered) {
				discovered = in.DiscoveredAt
			}
			list[i] = Structure{
				Type: existing.Type, Dimension: existing.Dimension,
				CenterX: cx, CenterY: existing.CenterY, CenterZ: cz,
				Box: box, DiscoveredAt: discovered,
			}
			merged = true
			break
		}
	}
	if !merged {
		list = append(list, in)
	}
	s.byDim[in.Dimension] = list
	dim := in.Dimension
	s.mu.Unlock()

	s.schedulePersist(dim)
}

// InsertBatch runs Insert for each structure in order, per spec.md §4.10's
// "Batch insert: run per-structure logic in order."
func (s *Store) InsertBatch(structs []Structure) {
	for _, st := range structs {
		s.Insert(st)
	}
}

// ByDimension returns a snapshot of the structures currently stored for dim.
func (s *Store) ByDimension(dim coord.Dimension) []Structure {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byDim[dim]
	out := make([]Structure, len(list))
	copy(out, list)
	return out
}

func (s *Store) schedulePersist(dim coord.Dimension) {
	select {
	case s.writes <- dim:
	default:
		s.log.Warn("structure store: persistence queue full, dropping write", "dimension", dim)
	}
}

// persistLoop is the single writer goroutine that serializes each
// dimension's structures to its JSON file, best-effort, per spec.md §4.10.
func (s *Store) persistLoop() {
	defer close(s.done)
	for dim := range s.writes {
		if err := s.persist(dim); err != nil {
			s.log.Error("structure store: persist failed", "dimension", dim, "err", err)
		}
	}
}

func (s *Store) persist(dim coord.Dimension) error {
	s.mu.Lock()
	list := make([]Structure, len(s.byDim[dim]))
	copy(list, s.byDim[dim])
	s.mu.Unlock()

	data, err := json.MarshalIndent(jsonStructures(list), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal structures: %w", err)
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("ensure structures dir: %w", err)
	}
	final := filepath.Join(s.dataDir, string(dim)+".json")
	tmp, err := os.CreateTemp(s.dataDir, string(dim)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename structures file: %w", err)
	}
	return nil
}

// Load reads dim's persisted structures from disk, if present, replacing
// any in-memory state for that dimension. Intended for startup.
func (s *Store) Load(dim coord.Dimension) error {
	path := filepath.Join(s.dataDir, string(dim)+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read structures file: %w", err)
	}
	var stored []jsonStructure
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("unmarshal structures file: %w", err)
	}
	list := make([]Structure, 0, len(stored))
	for _, js := range stored {
		list = append(list, js.toDomain(dim))
	}
	s.mu.Lock()
	s.byDim[dim] = list
	s.mu.Unlock()
	return nil
}

type jsonStructure struct {
	Type         string `json:"type"`
	CenterX      int    `json:"centerX"`
	CenterY      int    `json:"centerY"`
	CenterZ      int    `json:"centerZ"`
	MinX         int    `json:"minX"`
	MaxX         int    `json:"maxX"`
	MinZ         int    `json:"minZ"`
	MaxZ         int    `json:"maxZ"`
	DiscoveredAt int64  `json:"discoveredAt"`
}

func jsonStructures(list []Structure) []jsonStructure {
	out := make([]jsonStructure, len(list))
	for i, s := range list {
		out[i] = jsonStructure{
			Type: s.Type, CenterX: s.CenterX, CenterY: s.CenterY, CenterZ: s.CenterZ,
			MinX: s.Box.MinX, MaxX: s.Box.MaxX, MinZ: s.Box.MinZ, MaxZ: s.Box.MaxZ,
			DiscoveredAt: s.DiscoveredAt.UnixMilli(),
		}
	}
	return out
}

func timeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (j jsonStructure) toDomain(dim coord.Dimension) Structure {
	return Structure{
		Type: j.Type, Dimension: dim,
		CenterX: j.CenterX, CenterY: j.CenterY, CenterZ: j.CenterZ,
		Box:          BoundingBox{MinX: j.MinX, MaxX: j.MaxX, MinZ: j.MinZ, MaxZ: j.MaxZ},
		DiscoveredAt: timeFromMillis(j.DiscoveredAt),
	}
}
