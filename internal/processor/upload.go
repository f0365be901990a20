package processor

import (
	"context"

	"github.com/df-mc/mapcarta/internal/structure"
	"github.com/df-mc/mapcarta/internal/wire"
)

// UploadClient submits batches to the server over the wire protocol of
// spec.md §6. The concrete implementation (an HTTP client posting to
// /world/chunks etc.) is an ambient collaborator outside the hard core.
type UploadClient interface {
	UploadChunks(ctx context.Context, payloads []wire.ChunkPayload) error
	UploadStructures(ctx context.Context, structs []structure.Structure) error
	UploadQueueStatus(ctx context.Context, status wire.QueueStatus) error
}
