// Package ebitenskin draws skin primitives with Ebitengine.
package ebitenskin

import (
	"image"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/skin"
)

var magentaImage *ebiten.Image

// ensureMagentaImage returns a shared 1x1 magenta image, drawn in place of
// primitives whose region is missing from the atlas.
func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return magentaImage
}

// DrawOptions are applied on top of every primitive of one Draw call. The
// zero value draws at the primitives' own coordinates, unmodified.
type DrawOptions struct {
	GeoM       ebiten.GeoM
	ColorScale ebiten.ColorScale
	Blend      ebiten.Blend
}

// Renderer owns the GPU copies of one atlas's pages.
type Renderer struct {
	atlas *skin.Atlas
	pages []*ebiten.Image
	seq   uint64

	op ebiten.DrawImageOptions
}

// NewRenderer uploads the pages of atlas, which may be nil.
func NewRenderer(atlas *skin.Atlas) *Renderer {
	r := &Renderer{}
	r.upload(atlas)
	return r
}

func (r *Renderer) upload(atlas *skin.Atlas) {
	for _, p := range r.pages {
		p.Deallocate()
	}
	r.pages = r.pages[:0]
	r.atlas = atlas
	if atlas == nil {
		return
	}
	for _, p := range atlas.Pages {
		r.pages = append(r.pages, ebiten.NewImageFromImage(p))
	}
}

// Sync switches to the atlas of gen when gen is newer than what the
// renderer last uploaded. It reports whether pages were re-uploaded. Call
// it once per frame with Store.Current().
func (r *Renderer) Sync(gen *skin.Generation) bool {
	if gen == nil || gen.Atlas == r.atlas {
		return false
	}
	if r.atlas != nil && gen.Seq <= r.seq {
		return false
	}
	r.upload(gen.Atlas)
	r.seq = gen.Seq
	skin.Logger().Debug("ebitenskin: atlas pages uploaded", slog.Uint64("seq", gen.Seq), slog.Int("pages", len(r.pages)))
	return true
}

// Atlas returns the atlas whose pages are currently uploaded.
func (r *Renderer) Atlas() *skin.Atlas {
	return r.atlas
}

// Draw renders prims onto dst. Primitives whose region is not in the atlas
// are drawn as magenta rectangles.
func (r *Renderer) Draw(dst *ebiten.Image, prims []skin.DrawPrimitive, opts *DrawOptions) {
	op := &r.op
	for i := range prims {
		p := &prims[i]
		if p.Dst.Empty() || p.Src.Empty() {
			continue
		}

		var img *ebiten.Image
		srcSize := p.Src.Size()
		if pl, ok := r.lookup(p); ok {
			img = r.pages[pl.Page].SubImage(pl.Rect).(*ebiten.Image)
		} else {
			skin.Logger().Debug("ebitenskin: region missing from atlas",
				slog.String("source", p.Source), slog.String("rect", p.Src.String()))
			img = ensureMagentaImage()
			srcSize = image.Pt(1, 1)
		}

		op.GeoM = primitiveGeoM(p.Dst, srcSize)
		op.ColorScale.Reset()
		if !p.Color.IsWhite() {
			a := float32(p.Color.A)
			op.ColorScale.Scale(float32(p.Color.R)*a, float32(p.Color.G)*a, float32(p.Color.B)*a, a)
		}
		op.Blend = ebiten.Blend{}
		if opts != nil {
			op.GeoM.Concat(opts.GeoM)
			op.ColorScale.ScaleWithColorScale(opts.ColorScale)
			op.Blend = opts.Blend
		}
		dst.DrawImage(img, op)
	}
}

func (r *Renderer) lookup(p *skin.DrawPrimitive) (skin.Placement, bool) {
	if r.atlas == nil {
		return skin.Placement{}, false
	}
	pl, ok := r.atlas.Lookup(p.Source, p.Src)
	if !ok || pl.Page >= len(r.pages) {
		return skin.Placement{}, false
	}
	return pl, true
}

// primitiveGeoM maps a src-sized image onto dst.
func primitiveGeoM(dst skin.Rect, src image.Point) ebiten.GeoM {
	var m ebiten.GeoM
	m.Scale(dst.Width/float64(src.X), dst.Height/float64(src.Y))
	m.Translate(dst.X, dst.Y)
	return m
}
