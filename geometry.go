package skin

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"
)

// DrawPrimitive maps one source-texture rectangle onto one destination
// rectangle. Src is in post-scale source pixels, Dst in layout units.
type DrawPrimitive struct {
	Source string
	Src    image.Rectangle
	Dst    Rect
	Color  Color
}

// Instantiate computes the primitives for def drawn into dst at the given
// elapsed time. Aliases and animation frames are followed inside the set;
// an alias to Empty yields no primitives. State maps must be resolved by
// the caller first (see Draw); passing one here panics.
func (s *ImageSet) Instantiate(def Definition, dst Rect, elapsed time.Duration) []DrawPrimitive {
	return s.appendInstance(nil, def, dst, elapsed)
}

// Draw resolves name against flags and elapsed time and returns its
// primitives. Unknown names draw nothing.
func (s *ImageSet) Draw(name string, flags StateFlags, dst Rect, elapsed time.Duration) []DrawPrimitive {
	return s.AppendDraw(nil, name, flags, dst, elapsed)
}

// AppendDraw is Draw appending to out, for callers that reuse a buffer
// across frames.
func (s *ImageSet) AppendDraw(out []DrawPrimitive, name string, flags StateFlags, dst Rect, elapsed time.Duration) []DrawPrimitive {
	leaf, ok := s.Leaf(name, flags, elapsed)
	if !ok {
		return out
	}
	return s.appendInstance(out, leaf, dst, elapsed)
}

// Leaf follows aliases, state maps and animation frames from name to the
// leaf definition shown for flags at elapsed. It reports false for Empty
// and for names the set does not define.
func (s *ImageSet) Leaf(name string, flags StateFlags, elapsed time.Duration) (Definition, bool) {
	for hops := 0; hops <= len(s.images); hops++ {
		if name == Empty {
			return nil, false
		}
		def, ok := s.images[name]
		if !ok {
			Logger().Debug("skin: image not found", slog.String("set", s.Name), slog.String("image", name))
			return nil, false
		}
		switch d := def.(type) {
		case *Alias:
			name = d.Target
		case *StateMap:
			name = d.Resolve(flags)
		case *Animated:
			name = d.Frame(elapsed)
		default:
			return def, true
		}
	}
	panic(fmt.Sprintf("skin: reference chain from %q in set %q does not terminate", name, s.Name))
}

// Select follows aliases and state maps from name and returns the name of
// the image shown for flags. Animations are not stepped, so the result is
// stable over time; it is what state transitions key on.
func (s *ImageSet) Select(name string, flags StateFlags) string {
	for hops := 0; hops <= len(s.images); hops++ {
		switch d := s.images[name].(type) {
		case *Alias:
			name = d.Target
		case *StateMap:
			name = d.Resolve(flags)
		default:
			return name
		}
	}
	panic(fmt.Sprintf("skin: reference chain from %q in set %q does not terminate", name, s.Name))
}

// NaturalSize is the size name occupies when drawn without stretching: the
// region size for Simple images, three cells along each patched axis for
// grids, and zero for Empty and solid colors. State maps report their Normal image and
// animations their first frame.
func (s *ImageSet) NaturalSize(name string) image.Point {
	leaf, ok := s.Leaf(name, StateNormal, 0)
	if !ok {
		return image.Point{}
	}
	r, _ := leafBounds(leaf)
	return r.Size()
}

func (s *ImageSet) appendInstance(out []DrawPrimitive, def Definition, dst Rect, elapsed time.Duration) []DrawPrimitive {
	for hops := 0; hops <= len(s.images); hops++ {
		switch d := def.(type) {
		case *Simple:
			return s.appendSimple(out, d, dst)
		case *Grid:
			cw, ch := float64(d.Cell.X), float64(d.Cell.Y)
			xs, ws := spans(dst.X, dst.Width, cw)
			ys, hs := spans(dst.Y, dst.Height, ch)
			for row := 0; row < 3; row++ {
				for col := 0; col < 3; col++ {
					out = append(out, DrawPrimitive{
						Source: s.Source,
						Src:    cellRect(d.Position, d.Cell, col, row),
						Dst:    Rect{X: xs[col], Y: ys[row], Width: ws[col], Height: hs[row]},
						Color:  d.Color,
					})
				}
			}
			return out
		case *GridHorizontal:
			xs, ws := spans(dst.X, dst.Width, float64(d.Cell.X))
			for col := 0; col < 3; col++ {
				out = append(out, DrawPrimitive{
					Source: s.Source,
					Src:    cellRect(d.Position, d.Cell, col, 0),
					Dst:    Rect{X: xs[col], Y: dst.Y, Width: ws[col], Height: nonNegative(dst.Height)},
					Color:  d.Color,
				})
			}
			return out
		case *GridVertical:
			ys, hs := spans(dst.Y, dst.Height, float64(d.Cell.Y))
			for row := 0; row < 3; row++ {
				out = append(out, DrawPrimitive{
					Source: s.Source,
					Src:    cellRect(d.Position, d.Cell, 0, row),
					Dst:    Rect{X: dst.X, Y: ys[row], Width: nonNegative(dst.Width), Height: hs[row]},
					Color:  d.Color,
				})
			}
			return out
		case *Animated:
			def = s.mustLookup(d.Frame(elapsed))
		case *Alias:
			def = s.mustLookup(d.Target)
		case *StateMap:
			panic("skin: state map instantiated without resolving interaction flags")
		case nil:
			return out
		default:
			panic(fmt.Sprintf("skin: unhandled definition %T", def))
		}
	}
	panic(fmt.Sprintf("skin: reference chain in set %q does not terminate", s.Name))
}

// mustLookup returns nil for Empty. A missing name means the model was not
// validated by Load.
func (s *ImageSet) mustLookup(name string) Definition {
	if name == Empty {
		return nil
	}
	def, ok := s.images[name]
	if !ok {
		panic(fmt.Sprintf("skin: set %q references undefined image %q", s.Name, name))
	}
	return def
}

// MaxRepeatTiles bounds the primitives one Repeat image emits. When tiling
// at native size would need more, tiles are enlarged by the smallest power
// of two that fits, so the destination is still fully covered.
const MaxRepeatTiles = 4096

func (s *ImageSet) appendSimple(out []DrawPrimitive, d *Simple, dst Rect) []DrawPrimitive {
	if d.Solid {
		return append(out, DrawPrimitive{
			Source: WhitePixel.Source,
			Src:    WhitePixel.Rect,
			Dst:    Rect{X: dst.X, Y: dst.Y, Width: nonNegative(dst.Width), Height: nonNegative(dst.Height)},
			Color:  d.Color,
		})
	}

	src := d.Bounds()
	sw, sh := float64(d.Size.X), float64(d.Size.Y)
	prim := DrawPrimitive{Source: s.Source, Src: src, Color: d.Color}

	switch d.Fill {
	case FillStretch:
		prim.Dst = Rect{X: dst.X, Y: dst.Y, Width: nonNegative(dst.Width), Height: nonNegative(dst.Height)}
		return append(out, prim)
	case FillCenter:
		prim.Dst = Rect{X: dst.X + (dst.Width-sw)/2, Y: dst.Y + (dst.Height-sh)/2, Width: sw, Height: sh}
		return append(out, prim)
	case FillRepeat:
		width, height := nonNegative(dst.Width), nonNegative(dst.Height)
		k := repeatScale(width/sw, height/sh)
		tw, th := sw*k, sh*k
		for j := 0; float64(j)*th < height; j++ {
			y := float64(j) * th
			h := math.Min(th, height-y)
			for i := 0; float64(i)*tw < width; i++ {
				x := float64(i) * tw
				w := math.Min(tw, width-x)
				out = append(out, DrawPrimitive{
					Source: s.Source,
					Src: image.Rectangle{
						Min: src.Min,
						Max: src.Min.Add(image.Pt(clipPixels(w/k, d.Size.X), clipPixels(h/k, d.Size.Y))),
					},
					Dst:   Rect{X: dst.X + x, Y: dst.Y + y, Width: w, Height: h},
					Color: d.Color,
				})
			}
		}
		return out
	default:
		prim.Dst = Rect{X: dst.X, Y: dst.Y, Width: sw, Height: sh}
		return append(out, prim)
	}
}

// spans partitions one axis of length starting at origin into start,
// middle and end segments. The end segments keep the cell size while there
// is room; below 2*cell both shrink to length/2 and the middle collapses.
func spans(origin, length, cell float64) (pos [3]float64, size [3]float64) {
	length = nonNegative(length)
	edge, mid := cell, length-2*cell
	if mid < 0 {
		edge, mid = length/2, 0
	}
	size = [3]float64{edge, mid, edge}
	pos = [3]float64{origin, origin + edge, origin + edge + mid}
	return pos, size
}

func cellRect(origin, cell image.Point, col, row int) image.Rectangle {
	p := origin.Add(image.Pt(col*cell.X, row*cell.Y))
	return image.Rectangle{Min: p, Max: p.Add(cell)}
}

// clipPixels converts a clipped tile extent to whole source pixels.
func clipPixels(extent float64, full int) int {
	n := int(math.Ceil(extent))
	if n > full {
		return full
	}
	return n
}

// repeatScale returns the tile enlargement for a destination cols by rows
// native tiles wide and tall: 1, or the smallest power of two keeping the
// tile count within MaxRepeatTiles.
func repeatScale(cols, rows float64) float64 {
	k := 1.0
	for math.Ceil(cols/k)*math.Ceil(rows/k) > MaxRepeatTiles {
		k *= 2
	}
	return k
}

// nonNegative clamps negative and non-finite extents to zero.
func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
