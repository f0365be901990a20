package compositor

import (
	"image"
	"image/color"

	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/wire"
)

// CompositeBlock paints blocks belonging to one (dimension, zoom, tileX,
// tileZ) onto previous (possibly nil) tile bytes, using the mapType=block
// shading algorithm of spec.md §4.6, and returns the newly encoded PNG.
func CompositeBlock(previous []byte, blocks []wire.BlockRecord, tile coord.TileCoord) ([]byte, error) {
	raster := DecodeRaster(previous)
	paintBlockShading(raster, blocks, tile)
	return EncodeRaster(raster)
}

// paintBlockShading implements spec.md §4.6's block-map algorithm: build a
// local height map, shade each block (water by depth/parity, terrain by
// comparison to its north neighbor), then paint.
func paintBlockShading(raster *image.RGBA, blocks []wire.BlockRecord, tile coord.TileCoord) {
	type colKey struct{ x, z int }
	heights := make(map[colKey]int, len(blocks))
	for _, b := range blocks {
		k := colKey{b.X, b.Z}
		if h, ok := heights[k]; !ok || b.Y > h {
			heights[k] = b.Y
		}
	}

	for _, b := range blocks {
		var shade Shade
		if b.IsWater() {
			shade = waterShade(*b.WaterDepth, oddParity(b.X, b.Z))
		} else {
			north, hasNorth := heights[colKey{b.X, b.Z - 1}]
			shade = terrainShade(b.Y, north, hasNorth)
		}
		c := shade.Apply(b.MapColor.R, b.MapColor.G, b.MapColor.B)
		paintBlock(raster, b.X, b.Z, tile, c)
	}
}

// paintBlock writes the pixel(s) a single block covers at this tile's zoom,
// per spec.md §4.1's pixel footprint rule.
func paintBlock(raster *image.RGBA, blockX, blockZ int, tile coord.TileCoord, c color.RGBA) {
	px, pz := coord.BlockToPixel(blockX, blockZ, tile.X, tile.Z, tile.Zoom)
	footprint := coord.PixelFootprint(tile.Zoom)
	for dx := 0; dx < footprint; dx++ {
		for dz := 0; dz < footprint; dz++ {
			setPixel(raster, px+dx, pz+dz, c)
		}
	}
}

// CompositeHeight paints a grayscale height-normalized tile, per spec.md
// §4.6's mapType=height algorithm. When multiple blocks collide on (x,z)
// within this payload, the highest y wins; against the previous raster the
// new write always overwrites (the previous tile carries no per-pixel
// height to compare against).
func CompositeHeight(previous []byte, blocks []wire.BlockRecord, tile coord.TileCoord, dim coord.Dimension) ([]byte, error) {
	raster := DecodeRaster(previous)

	type colKey struct{ x, z int }
	best := make(map[colKey]int, len(blocks))
	for _, b := range blocks {
		k := colKey{b.X, b.Z}
		if h, ok := best[k]; !ok || b.Y > h {
			best[k] = b.Y
		}
	}

	minY, maxY := dim.MinY(), dim.MaxY()
	span := maxY - minY
	for k, y := range best {
		norm := 0.0
		if span > 0 {
			norm = float64(y-minY) / float64(span)
		}
		if norm < 0 {
			norm = 0
		}
		if norm > 1 {
			norm = 1
		}
		v := uint8(norm * 255)
		c := color.RGBA{R: v, G: v, B: v, A: 255}
		paintBlock(raster, k.x, k.z, tile, c)
	}
	return EncodeRaster(raster)
}

// DensityColumn is one (x,z) column's pre-normalized density value in
// [0,1], the input shape for the optional mapType=density algorithm.
type DensityColumn struct {
	X, Z  int
	Value float64
}

// CompositeDensity paints a grayscale tile directly from normalized density
// values, per spec.md §4.6's optional mapType=density algorithm. No wire
// format carries density columns today (spec.md §6 does not define one);
// this exists so the compositor's three documented map types are all
// implemented and independently testable.
func CompositeDensity(previous []byte, columns []DensityColumn, tile coord.TileCoord) ([]byte, error) {
	raster := DecodeRaster(previous)
	for _, col := range columns {
		v := col.Value
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		g := uint8(v * 255)
		paintBlock(raster, col.X, col.Z, tile, color.RGBA{R: g, G: g, B: g, A: 255})
	}
	return EncodeRaster(raster)
}
