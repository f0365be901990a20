package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/errs"
	"github.com/df-mc/mapcarta/internal/ingestion"
	"github.com/df-mc/mapcarta/internal/playerstore"
	"github.com/df-mc/mapcarta/internal/structure"
	"github.com/df-mc/mapcarta/internal/tilestore"
	"github.com/df-mc/mapcarta/internal/wire"
	"github.com/df-mc/mapcarta/internal/wsfanout"
	"github.com/go-chi/chi/v5"
)

// Server holds every collaborator the HTTP surface dispatches to.
type Server struct {
	Pipeline   *ingestion.Pipeline
	Tiles      *tilestore.Store
	Structures *structure.Store
	Players    *playerstore.Store
	Hub        *wsfanout.Hub

	startedAt time.Time

	// lastQueueStatus is the most recently reported agent queue status. It
	// is recorded only; no handler reads it back.
	lastQueueStatus wire.QueueStatus
}

func (s *Server) now() int64 { return time.Now().UnixMilli() }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.startedAt).Seconds(),
		"timestamp": s.now(),
	})
}

func (s *Server) handleIngestChunks(w http.ResponseWriter, r *http.Request) {
	var req wire.ChunkBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	payloads := make([]wire.ChunkPayload, 0, len(req.Chunks))
	for _, c := range req.Chunks {
		p, err := c.ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid chunk payload", err)
			return
		}
		payloads = append(payloads, p)
	}

	tiles, err := s.Pipeline.IngestChunks(r.Context(), payloads)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingestion failed", err)
		return
	}
	if s.Hub != nil && len(tiles) > 0 {
		s.Hub.Publish(wsfanout.NewTileUpdate(tiles, s.now()))
	}
	writeSuccess(w, map[string]int{"received": len(payloads), "updated": len(tiles)})
}

func (s *Server) handleIngestBlocks(w http.ResponseWriter, r *http.Request) {
	var req wire.BlockChangeBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	received := 0
	for _, b := range req.Blocks {
		change, err := b.ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid block change", err)
			return
		}
		if err := s.Pipeline.IngestBlockChange(change); err != nil {
			writeError(w, http.StatusBadRequest, "invalid block change", err)
			return
		}
		received++
	}
	writeSuccess(w, map[string]int{"received": received})
}

func (s *Server) handleIngestPlayers(w http.ResponseWriter, r *http.Request) {
	var req wire.PlayerBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	snapshots := make([]wire.PlayerSnapshot, 0, len(req.Players))
	for _, p := range req.Players {
		snap, err := p.ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid player snapshot", err)
			return
		}
		snapshots = append(snapshots, snap)
	}
	s.Players.UpsertBatch(snapshots)
	if s.Hub != nil {
		for _, snap := range snapshots {
			s.Hub.Publish(wsfanout.Event{Type: "player:update", Timestamp: s.now(), Payload: snap})
		}
	}
	writeSuccess(w, map[string]int{"received": len(snapshots)})
}

// handleIngestEntities accepts opaque entity payloads. The entity store
// itself is an out-of-scope external collaborator (spec.md §1); this
// handler only validates the envelope shape and acknowledges receipt.
func (s *Server) handleIngestEntities(w http.ResponseWriter, r *http.Request) {
	var req wire.EntityBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	writeSuccess(w, map[string]int{"received": len(req.Entities)})
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	var req wire.QueueStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	s.lastQueueStatus = req.ToDomain()
	writeSuccess(w, map[string]int{"received": 1})
}

func (s *Server) handleIngestStructures(w http.ResponseWriter, r *http.Request) {
	var req wire.StructureBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	reports := make([]structure.Structure, 0, len(req.Structures))
	for _, sj := range req.Structures {
		rep, err := sj.ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid structure report", err)
			return
		}
		reports = append(reports, toStoredStructure(rep))
	}
	s.Structures.InsertBatch(reports)
	writeSuccess(w, map[string]int{"received": len(reports)})
}

func toStoredStructure(rep wire.StructureReport) structure.Structure {
	return structure.Structure{
		Type:      rep.StructureType,
		Dimension: rep.Dimension,
		CenterX:   rep.X, CenterY: rep.Y, CenterZ: rep.Z,
		Box: structure.BoundingBox{
			MinX: rep.Extents.MinX, MaxX: rep.Extents.MaxX,
			MinZ: rep.Extents.MinZ, MaxZ: rep.Extents.MaxZ,
		},
		DiscoveredAt: time.UnixMilli(rep.DiscoveredAt),
	}
}

// handleListStructures is the read path spec.md §8's S6 scenario exercises
// but §6's endpoint table omits; see SPEC_FULL.md §6.
func (s *Server) handleListStructures(w http.ResponseWriter, r *http.Request) {
	dim, err := coord.ParseDimension(r.URL.Query().Get("dimension"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dimension", err)
		return
	}
	structs := s.Structures.ByDimension(dim)
	out := make([]wire.StructureJSON, 0, len(structs))
	for _, st := range structs {
		out = append(out, wire.FromDomainStructure(wire.StructureReport{
			StructureType: st.Type, X: st.CenterX, Y: st.CenterY, Z: st.CenterZ, Dimension: st.Dimension,
			Extents:      wire.Extents{MinX: st.Box.MinX, MaxX: st.Box.MaxX, MinZ: st.Box.MinZ, MaxZ: st.Box.MaxZ},
			DiscoveredAt: st.DiscoveredAt.UnixMilli(),
		}))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"structures": out}})
}

func (s *Server) handleChunkExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dim, err := coord.ParseDimension(q.Get("dimension"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dimension", err)
		return
	}
	cx, errX := strconv.Atoi(q.Get("chunkX"))
	cz, errZ := strconv.Atoi(q.Get("chunkZ"))
	if errX != nil || errZ != nil {
		writeError(w, http.StatusBadRequest, "invalid chunk coordinates", errs.ErrValidationFailure)
		return
	}
	bx, bz := cx*coord.ChunkSize, cz*coord.ChunkSize
	tx, tz := coord.BlockToTile(bx, bz, 0)
	exists := s.Tiles.Exists(coord.TileCoord{Dimension: dim, MapType: coord.MapBlock, Zoom: 0, X: tx, Z: tz})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"exists": exists}})
}

func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	dim, err := coord.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dimension", err)
		return
	}
	mapType, err := coord.ParseMapType(chi.URLParam(r, "mapType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map type", err)
		return
	}
	zoom, errZoom := strconv.Atoi(chi.URLParam(r, "zoom"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	z, errZ := strconv.Atoi(strimPNG(chi.URLParam(r, "z")))
	if errZoom != nil || errX != nil || errZ != nil || !coord.ValidZoom(zoom) {
		writeError(w, http.StatusBadRequest, "invalid tile coordinate", errs.ErrValidationFailure)
		return
	}

	tile := coord.TileCoord{Dimension: dim, MapType: mapType, Zoom: zoom, X: x, Z: z}
	data, ok, err := s.Tiles.Read(tile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read tile failed", err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=60")
	_, _ = w.Write(data)
}

func strimPNG(s string) string {
	const suffix = ".png"
	if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)]
	}
	return s
}

func (s *Server) handleClearTiles(w http.ResponseWriter, r *http.Request) {
	if err := s.Tiles.ClearAll(); err != nil {
		writeError(w, http.StatusInternalServerError, "clear tiles failed", err)
		return
	}
	writeSuccess(w, map[string]int{"cleared": 1})
}
