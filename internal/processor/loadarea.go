package processor

import "github.com/df-mc/mapcarta/internal/coord"

// LoadAreaHandle identifies a registered LoadArea so it can later be
// released. The concrete value is opaque to the processor.
type LoadAreaHandle any

// LoadAreaBroker is the host game runtime's LoadArea primitive (spec.md
// §4.4 step 3, glossary "LoadArea"): an out-of-scope external collaborator
// that keeps a rectangular region resident so the scanner can read it.
type LoadAreaBroker interface {
	// RegisterLoadArea requests a LoadArea covering the inclusive block
	// rectangle [minX,minZ]..[maxX,maxZ] in dim. It blocks until the area is
	// registered with the runtime.
	RegisterLoadArea(dim coord.Dimension, minX, minZ, maxX, maxZ int) (LoadAreaHandle, error)

	// IsChunkLoaded polls whether the chunk at (chunkX, chunkZ) is resident.
	IsChunkLoaded(dim coord.Dimension, chunkX, chunkZ int) bool

	// ReleaseLoadArea releases a previously registered LoadArea.
	ReleaseLoadArea(h LoadAreaHandle)
}
