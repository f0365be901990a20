// Package errs names the error kinds of spec.md §7 as sentinel values so
// callers can classify a failure with errors.Is instead of string matching.
// The teacher repo has no dedicated errors package of its own; it favors
// plain sentinel `errors.New` values declared next to the code that returns
// them (see server/world/world.go's ErrChunkNotLoaded-style values), which
// this package generalizes into one shared catalogue the cartography
// pipeline's several packages can wrap against.
package errs

import "errors"

var (
	// ErrTransientRuntime marks a world-runtime read that was refused
	// (unloaded chunk, removed entity). Callers should swallow it per-column,
	// or re-enqueue the affected job at Low priority.
	ErrTransientRuntime = errors.New("errs: transient runtime read failure")

	// ErrUnderload marks a chunk scan that produced fewer than the minimum
	// block threshold. Callers should re-enqueue at Low and not report it.
	ErrUnderload = errors.New("errs: chunk scan underload")

	// ErrValidationFailure marks an incoming payload that violates the wire
	// schema. Callers should reject the whole request with no partial
	// ingestion.
	ErrValidationFailure = errors.New("errs: validation failure")

	// ErrTileWriteFailure marks a filesystem error while writing a tile.
	// Callers should log it and not retry; the next scan will overwrite.
	ErrTileWriteFailure = errors.New("errs: tile write failure")

	// ErrUploadFailure marks an HTTP error from agent to server. Callers
	// should log it and drop the batch without blocking the queue.
	ErrUploadFailure = errors.New("errs: upload failure")

	// ErrAuthFailure marks a bad or missing auth token. Callers should
	// respond 401 and not process the request.
	ErrAuthFailure = errors.New("errs: auth failure")

	// ErrFatal marks a startup-time failure (listen failure, unparseable
	// config). Callers should exit non-zero.
	ErrFatal = errors.New("errs: fatal startup failure")
)
