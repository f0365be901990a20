// Package compositor implements the server-side Tile Compositor of spec.md
// §4.6: painting a chunk's blocks onto a 256x256 raster at every zoom
// level, with height/water shading, and PNG encode/decode.
package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/df-mc/mapcarta/internal/coord"
)

// NewBlankRaster returns a fully-transparent 256x256 raster, the base used
// when no previous tile exists.
func NewBlankRaster() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, coord.TileSize, coord.TileSize))
}

// DecodeRaster decodes previous tile PNG bytes into a raster. If data is
// empty, or does not decode to a 256x256 image, a blank raster is returned:
// per spec.md §4.6, "if a previous tile exists with the expected
// dimensions, use its raw pixels; otherwise start with fully-transparent
// zeros."
func DecodeRaster(data []byte) *image.RGBA {
	if len(data) == 0 {
		return NewBlankRaster()
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return NewBlankRaster()
	}
	b := img.Bounds()
	if b.Dx() != coord.TileSize || b.Dy() != coord.TileSize {
		return NewBlankRaster()
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := NewBlankRaster()
	for y := 0; y < coord.TileSize; y++ {
		for x := 0; x < coord.TileSize; x++ {
			rgba.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return rgba
}

// EncodeRaster PNG-encodes a raster, matching the teacher corpus's
// PNG.BestSpeed convention for tile output (geotiff2pmtiles/internal/encode/png.go).
func EncodeRaster(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("compositor: encode tile: %w", err)
	}
	return buf.Bytes(), nil
}

// setPixel writes an opaque color at (x, z) if it lies within the raster.
func setPixel(img *image.RGBA, x, z int, c color.RGBA) {
	if x < 0 || x >= coord.TileSize || z < 0 || z >= coord.TileSize {
		return
	}
	img.SetRGBA(x, z, c)
}
