package wire

import (
	"fmt"

	"github.com/df-mc/mapcarta/internal/coord"
)

// The types below are the literal JSON shapes of spec.md §6. They are kept
// separate from the domain types (ChunkPayload, BlockRecord, ...) so that
// wire format and internal representation can drift independently; each has
// a ToDomain conversion that also validates.

type rgbaJSON struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

type blockJSON struct {
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Z          int      `json:"z"`
	Type       string   `json:"type"`
	MapColor   rgbaJSON `json:"mapColor"`
	WaterDepth *int     `json:"waterDepth,omitempty"`
}

func (b blockJSON) toDomain() BlockRecord {
	return BlockRecord{
		X: b.X, Y: b.Y, Z: b.Z,
		TypeID:     b.Type,
		MapColor:   RGBA{R: b.MapColor.R, G: b.MapColor.G, B: b.MapColor.B, A: b.MapColor.A},
		WaterDepth: b.WaterDepth,
	}
}

func fromDomainBlock(b BlockRecord) blockJSON {
	return blockJSON{
		X: b.X, Y: b.Y, Z: b.Z,
		Type:       b.TypeID,
		MapColor:   rgbaJSON{R: b.MapColor.R, G: b.MapColor.G, B: b.MapColor.B, A: b.MapColor.A},
		WaterDepth: b.WaterDepth,
	}
}

// ChunkJSON is the JSON shape of one element of POST /world/chunks' "chunks".
type ChunkJSON struct {
	Dimension string      `json:"dimension"`
	ChunkX    int         `json:"chunkX"`
	ChunkZ    int         `json:"chunkZ"`
	Blocks    []blockJSON `json:"blocks"`
}

// ToDomain validates and converts c to a ChunkPayload.
func (c ChunkJSON) ToDomain() (ChunkPayload, error) {
	dim, err := coord.ParseDimension(c.Dimension)
	if err != nil {
		return ChunkPayload{}, err
	}
	blocks := make([]BlockRecord, len(c.Blocks))
	for i, b := range c.Blocks {
		blocks[i] = b.toDomain()
	}
	p := ChunkPayload{Dimension: dim, ChunkX: c.ChunkX, ChunkZ: c.ChunkZ, Blocks: blocks}
	if err := p.Validate(); err != nil {
		return ChunkPayload{}, err
	}
	return p, nil
}

// FromDomainChunk converts a ChunkPayload back to its JSON shape, used by
// agent-side batch serialization.
func FromDomainChunk(p ChunkPayload) ChunkJSON {
	blocks := make([]blockJSON, len(p.Blocks))
	for i, b := range p.Blocks {
		blocks[i] = fromDomainBlock(b)
	}
	return ChunkJSON{Dimension: string(p.Dimension), ChunkX: p.ChunkX, ChunkZ: p.ChunkZ, Blocks: blocks}
}

// ChunkBatchRequest is the body of POST /world/chunks.
type ChunkBatchRequest struct {
	Chunks []ChunkJSON `json:"chunks"`
}

// BlockChangeJSON is the JSON shape of one element of POST /world/blocks'
// "blocks".
type BlockChangeJSON struct {
	Dimension    string `json:"dimension"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Z            int    `json:"z"`
	BlockType    string `json:"blockType"`
	PreviousType string `json:"previousType,omitempty"`
	Player       string `json:"player,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// ToDomain validates and converts c to a BlockChange.
func (c BlockChangeJSON) ToDomain() (BlockChange, error) {
	dim, err := coord.ParseDimension(c.Dimension)
	if err != nil {
		return BlockChange{}, err
	}
	bc := BlockChange{
		Dimension: dim, X: c.X, Y: c.Y, Z: c.Z,
		BlockType: c.BlockType, PreviousType: c.PreviousType,
		Player: c.Player, Timestamp: c.Timestamp,
	}
	if err := bc.Validate(); err != nil {
		return BlockChange{}, err
	}
	return bc, nil
}

// BlockChangeBatchRequest is the body of POST /world/blocks.
type BlockChangeBatchRequest struct {
	Blocks []BlockChangeJSON `json:"blocks"`
}

// PlayerJSON is the JSON shape of one element of POST /world/players'
// "players".
type PlayerJSON struct {
	Name      string      `json:"name"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Z         float64     `json:"z"`
	Dimension string      `json:"dimension"`
	PlayfabID string      `json:"playfabId,omitempty"`
	Stats     PlayerStats `json:"stats,omitempty"`
}

// ToDomain validates and converts p to a PlayerSnapshot.
func (p PlayerJSON) ToDomain() (PlayerSnapshot, error) {
	dim, err := coord.ParseDimension(p.Dimension)
	if err != nil {
		return PlayerSnapshot{}, err
	}
	snap := PlayerSnapshot{Name: p.Name, X: p.X, Y: p.Y, Z: p.Z, Dimension: dim, PlayfabID: p.PlayfabID, Stats: p.Stats}
	if err := snap.Validate(); err != nil {
		return PlayerSnapshot{}, err
	}
	return snap, nil
}

// PlayerBatchRequest is the body of POST /world/players.
type PlayerBatchRequest struct {
	Players []PlayerJSON `json:"players"`
}

// EntityBatchRequest is the body of POST /world/entities. Entity shapes are
// not interpreted by the hard core (spec.md §1 names the entity store as an
// out-of-scope ambient collaborator); the server counts them in its
// acknowledgement and does not store them.
type EntityBatchRequest struct {
	Entities []map[string]any `json:"entities"`
}

// extentsJSON is the JSON shape of a structure's bounding box.
type extentsJSON struct {
	MinX int `json:"minX"`
	MaxX int `json:"maxX"`
	MinZ int `json:"minZ"`
	MaxZ int `json:"maxZ"`
}

// StructureJSON is the JSON shape of one element of POST /world/structures'
// "structures".
type StructureJSON struct {
	StructureType string      `json:"structureType"`
	X             int         `json:"x"`
	Y             int         `json:"y"`
	Z             int         `json:"z"`
	Dimension     string      `json:"dimension"`
	Extents       extentsJSON `json:"extents"`
	DiscoveredAt  int64       `json:"discoveredAt"`
}

// ToDomain validates and converts s to a StructureReport.
func (s StructureJSON) ToDomain() (StructureReport, error) {
	dim, err := coord.ParseDimension(s.Dimension)
	if err != nil {
		return StructureReport{}, err
	}
	rep := StructureReport{
		StructureType: s.StructureType, X: s.X, Y: s.Y, Z: s.Z, Dimension: dim,
		Extents:      Extents{MinX: s.Extents.MinX, MaxX: s.Extents.MaxX, MinZ: s.Extents.MinZ, MaxZ: s.Extents.MaxZ},
		DiscoveredAt: s.DiscoveredAt,
	}
	if err := rep.Validate(); err != nil {
		return StructureReport{}, err
	}
	return rep, nil
}

// FromDomainStructure converts a StructureReport back to its JSON shape.
func FromDomainStructure(s StructureReport) StructureJSON {
	return StructureJSON{
		StructureType: s.StructureType, X: s.X, Y: s.Y, Z: s.Z, Dimension: string(s.Dimension),
		Extents:      extentsJSON{MinX: s.Extents.MinX, MaxX: s.Extents.MaxX, MinZ: s.Extents.MinZ, MaxZ: s.Extents.MaxZ},
		DiscoveredAt: s.DiscoveredAt,
	}
}

// StructureBatchRequest is the body of POST /world/structures.
type StructureBatchRequest struct {
	Structures []StructureJSON `json:"structures"`
}

// QueueStatusRequest is the body of POST /world/queue/status.
type QueueStatusRequest struct {
	QueueSize         int      `json:"queueSize"`
	CompletedCount    int      `json:"completedCount"`
	TotalCount        int      `json:"totalCount"`
	CompletionPercent float64  `json:"completionPercent"`
	EtaMs             *int64   `json:"etaMs"`
	AvgJobTimeMs      *float64 `json:"avgJobTimeMs"`
	IsProcessing      bool     `json:"isProcessing"`
}

// ToDomain converts r to a QueueStatus. There is nothing to validate: every
// field is either a count or an optional, and 0 is valid for all.
func (r QueueStatusRequest) ToDomain() QueueStatus {
	return QueueStatus{
		QueueSize: r.QueueSize, CompletedCount: r.CompletedCount, TotalCount: r.TotalCount,
		CompletionPercent: r.CompletionPercent, EtaMs: r.EtaMs, AvgJobTimeMs: r.AvgJobTimeMs,
		IsProcessing: r.IsProcessing,
	}
}

// SuccessEnvelope wraps a successful ingestion response, per spec.md §6.
type SuccessEnvelope struct {
	Success bool           `json:"success"`
	Data    map[string]int `json:"data"`
}

// ErrorEnvelope wraps a validation or auth failure response, per spec.md §6.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewErrorEnvelope builds an ErrorEnvelope from an error.
func NewErrorEnvelope(label string, err error) ErrorEnvelope {
	return ErrorEnvelope{Success: false, Error: label, Details: fmt.Sprint(err)}
}
