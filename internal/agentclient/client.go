// Package agentclient implements the agent-side half of the HTTP wire
// protocol (spec.md §6): an UploadClient that posts batches to the server.
// No library in the retrieved corpus demonstrates an outbound HTTP client
// (the teacher is a game server, never a client of another HTTP service),
// so this is built directly on net/http; see DESIGN.md.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/df-mc/mapcarta/internal/structure"
	"github.com/df-mc/mapcarta/internal/wire"
)

// Client posts chunk, structure, and queue-status batches to the server.
type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// New constructs a Client with a sane default timeout.
func New(baseURL, authToken string) *Client {
	return &Client{
		BaseURL:   baseURL,
		AuthToken: authToken,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("agentclient: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1"+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("agentclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-mc-auth-token", c.AuthToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("agentclient: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("agentclient: %s returned status %d", path, resp.StatusCode)
	}
	return nil
}

// UploadChunks implements processor.UploadClient.
func (c *Client) UploadChunks(ctx context.Context, payloads []wire.ChunkPayload) error {
	chunks := make([]wire.ChunkJSON, len(payloads))
	for i, p := range payloads {
		chunks[i] = wire.FromDomainChunk(p)
	}
	return c.post(ctx, "/world/chunks", wire.ChunkBatchRequest{Chunks: chunks})
}

// UploadStructures implements processor.UploadClient.
func (c *Client) UploadStructures(ctx context.Context, structs []structure.Structure) error {
	reports := make([]wire.StructureJSON, len(structs))
	for i, st := range structs {
		reports[i] = wire.FromDomainStructure(wire.StructureReport{
			StructureType: st.Type, X: st.CenterX, Y: st.CenterY, Z: st.CenterZ, Dimension: st.Dimension,
			Extents:      wire.Extents{MinX: st.Box.MinX, MaxX: st.Box.MaxX, MinZ: st.Box.MinZ, MaxZ: st.Box.MaxZ},
			DiscoveredAt: st.DiscoveredAt.UnixMilli(),
		})
	}
	return c.post(ctx, "/world/structures", wire.StructureBatchRequest{Structures: reports})
}

// UploadQueueStatus implements processor.UploadClient.
func (c *Client) UploadQueueStatus(ctx context.Context, status wire.QueueStatus) error {
	return c.post(ctx, "/world/queue/status", wire.QueueStatusRequest{
		QueueSize: status.QueueSize, CompletedCount: status.CompletedCount, TotalCount: status.TotalCount,
		CompletionPercent: status.CompletionPercent, EtaMs: status.EtaMs, AvgJobTimeMs: status.AvgJobTimeMs,
		IsProcessing: status.IsProcessing,
	})
}
