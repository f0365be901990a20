package wsfanout

import "github.com/df-mc/mapcarta/internal/coord"

// TileUpdatePayload is the payload of a tile:update event, carrying every
// tile written by one ingestion batch (spec.md §6).
type TileUpdatePayload struct {
	Tiles []coord.TileCoord `json:"tiles"`
}

// NewTileUpdate builds a tile:update Event for the given tiles.
func NewTileUpdate(tiles []coord.TileCoord, nowMillis int64) Event {
	return Event{Type: "tile:update", Timestamp: nowMillis, Payload: TileUpdatePayload{Tiles: tiles}}
}

// MarshalJSON flattens Event's Payload into the top-level object alongside
// type/timestamp, matching spec.md §6's `{type, timestamp, ...}` shape.
func (e Event) MarshalJSON() ([]byte, error) {
	return marshalFlat(e.Type, e.Timestamp, e.Payload)
}
