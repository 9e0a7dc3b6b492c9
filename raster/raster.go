// Package raster draws skin primitives on the CPU, for previews, golden
// tests and headless tools.
package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/phanxgames/skin"
)

var magenta = image.NewUniform(color.RGBA{R: 255, G: 0, B: 255, A: 255})

// Draw composites prims onto dst, sampling regions from the atlas pages with
// nearest-neighbour scaling and applying each primitive's tint. Primitive
// coordinates are shifted by offset. Primitives whose region the atlas does
// not hold are filled magenta; their count is returned.
func Draw(dst draw.Image, atlas *skin.Atlas, prims []skin.DrawPrimitive, offset image.Point) (missing int) {
	var scratch *image.RGBA
	for i := range prims {
		p := &prims[i]
		dr := pixelRect(p.Dst).Add(offset)
		if dr.Empty() || p.Src.Empty() {
			continue
		}

		pl, ok := atlas.Lookup(p.Source, p.Src)
		if !ok || pl.Page >= len(atlas.Pages) {
			draw.Draw(dst, dr, magenta, image.Point{}, draw.Over)
			missing++
			continue
		}
		page := atlas.Pages[pl.Page]

		if p.Color.IsWhite() {
			draw.NearestNeighbor.Scale(dst, dr, page, pl.Rect, draw.Over, nil)
			continue
		}

		size := dr.Size()
		if scratch == nil || size.X > scratch.Rect.Dx() || size.Y > scratch.Rect.Dy() {
			scratch = image.NewRGBA(image.Rectangle{Max: size})
		}
		tile := scratch.SubImage(image.Rectangle{Max: size}).(*image.RGBA)
		draw.NearestNeighbor.Scale(tile, tile.Bounds(), page, pl.Rect, draw.Src, nil)
		tint(tile, p.Color)
		draw.Draw(dst, dr, tile, image.Point{}, draw.Over)
	}
	return missing
}

// pixelRect rounds both edges so adjacent primitives share pixel borders.
func pixelRect(r skin.Rect) image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.Width))
	y1 := int(math.Round(r.Y + r.Height))
	return image.Rect(x0, y0, x1, y1)
}

// tint multiplies premultiplied pixels by c in place.
func tint(img *image.RGBA, c skin.Color) {
	pm := c.RGBA()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i+0] = mul8(row[i+0], pm.R)
			row[i+1] = mul8(row[i+1], pm.G)
			row[i+2] = mul8(row[i+2], pm.B)
			row[i+3] = mul8(row[i+3], pm.A)
		}
	}
}

func mul8(a, b uint8) uint8 {
	return uint8((uint16(a)*uint16(b) + 127) / 255)
}
