package skin

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"time"
)

// Empty is the reserved reference that resolves to nothing: it draws no
// primitives and has zero natural size.
const Empty = "empty"

// Kind identifies the variant of a Definition.
type Kind uint8

const (
	KindSimple Kind = iota
	KindGrid
	KindGridHorizontal
	KindGridVertical
	KindAnimated
	KindStateMap
	KindAlias
)

var kindNames = [...]string{
	KindSimple:         "Simple",
	KindGrid:           "Grid",
	KindGridHorizontal: "GridHorizontal",
	KindGridVertical:   "GridVertical",
	KindAnimated:       "Animated",
	KindStateMap:       "StateMap",
	KindAlias:          "Alias",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsLeaf reports whether definitions of this kind can be instantiated
// without further indirection.
func (k Kind) IsLeaf() bool {
	return k <= KindGridVertical
}

// Definition is one named image of an ImageSet. The set of implementations
// is closed: *Simple, *Grid, *GridHorizontal, *GridVertical, *Animated,
// *StateMap and *Alias.
type Definition interface {
	Kind() Kind
	sealed()
}

// WhitePixelSource names the built-in source holding one opaque white
// texel. Pack supplies it without asking the SourceProvider.
const WhitePixelSource = "#white"

// WhitePixel is the region solid color images draw from, tinted by their
// Color.
var WhitePixel = Region{Source: WhitePixelSource, Rect: image.Rect(0, 0, 1, 1)}

// Simple is one rectangular source region, or with Solid set a flat Color
// stretched over the destination. Solid images have no source region and
// draw WhitePixel.
type Simple struct {
	Position image.Point
	Size     image.Point
	Fill     FillMode
	Color    Color
	Solid    bool
}

func (*Simple) Kind() Kind { return KindSimple }
func (*Simple) sealed()    {}

// Bounds returns the source region in post-scale texture pixels.
func (s *Simple) Bounds() image.Rectangle {
	return image.Rectangle{Min: s.Position, Max: s.Position.Add(s.Size)}
}

// Grid is a 3x3 nine-patch cut from a 3*Cell.X by 3*Cell.Y source region.
type Grid struct {
	Position image.Point
	Cell     image.Point
	Color    Color
}

func (*Grid) Kind() Kind { return KindGrid }
func (*Grid) sealed()    {}

func (g *Grid) Bounds() image.Rectangle {
	return image.Rectangle{Min: g.Position, Max: g.Position.Add(image.Pt(3*g.Cell.X, 3*g.Cell.Y))}
}

// GridHorizontal is a 3x1 patch that stretches horizontally only.
type GridHorizontal struct {
	Position image.Point
	Cell     image.Point
	Color    Color
}

func (*GridHorizontal) Kind() Kind { return KindGridHorizontal }
func (*GridHorizontal) sealed()    {}

func (g *GridHorizontal) Bounds() image.Rectangle {
	return image.Rectangle{Min: g.Position, Max: g.Position.Add(image.Pt(3*g.Cell.X, g.Cell.Y))}
}

// GridVertical is a 1x3 patch that stretches vertically only.
type GridVertical struct {
	Position image.Point
	Cell     image.Point
	Color    Color
}

func (*GridVertical) Kind() Kind { return KindGridVertical }
func (*GridVertical) sealed()    {}

func (g *GridVertical) Bounds() image.Rectangle {
	return image.Rectangle{Min: g.Position, Max: g.Position.Add(image.Pt(g.Cell.X, 3*g.Cell.Y))}
}

// Animated cycles through frames, each shown for FrameTime. With Once set
// the last frame holds instead of wrapping.
type Animated struct {
	FrameTime time.Duration
	Frames    []string
	Once      bool
}

func (*Animated) Kind() Kind { return KindAnimated }
func (*Animated) sealed()    {}

// FrameIndex returns the frame shown after elapsed time. Negative elapsed
// values wrap like positive ones for looping animations and clamp to the
// first frame otherwise.
func (a *Animated) FrameIndex(elapsed time.Duration) int {
	n := int64(len(a.Frames))
	if n == 0 || a.FrameTime <= 0 {
		return 0
	}
	step := int64(elapsed / a.FrameTime)
	if elapsed < 0 && elapsed%a.FrameTime != 0 {
		step-- // floor for negative times
	}
	if a.Once {
		if step < 0 {
			return 0
		}
		if step >= n {
			return int(n - 1)
		}
		return int(step)
	}
	idx := step % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

// Frame returns the frame name shown after elapsed time.
func (a *Animated) Frame(elapsed time.Duration) string {
	return a.Frames[a.FrameIndex(elapsed)]
}

// Period is the length of one full cycle.
func (a *Animated) Period() time.Duration {
	return a.FrameTime * time.Duration(len(a.Frames))
}

// Alias reuses another definition of the same set by name. Target may be
// Empty.
type Alias struct {
	Target string
}

func (*Alias) Kind() Kind { return KindAlias }
func (*Alias) sealed()    {}

// leafBounds returns the source region of a leaf definition.
func leafBounds(def Definition) (image.Rectangle, bool) {
	switch d := def.(type) {
	case *Simple:
		return d.Bounds(), true
	case *Grid:
		return d.Bounds(), true
	case *GridHorizontal:
		return d.Bounds(), true
	case *GridVertical:
		return d.Bounds(), true
	}
	return image.Rectangle{}, false
}

// references lists the names def points at, in document order.
func references(def Definition) []string {
	switch d := def.(type) {
	case *Alias:
		return []string{d.Target}
	case *Animated:
		return d.Frames
	case *StateMap:
		keys := d.Keys()
		refs := make([]string, 0, len(keys))
		for _, k := range keys {
			refs = append(refs, d.names[k])
		}
		return refs
	}
	return nil
}

// ImageSet is a named collection of definitions cut from one source
// texture. It is immutable once returned by Load and safe for concurrent
// readers.
type ImageSet struct {
	Name   string
	Source string
	Scale  float64

	images map[string]Definition
	names  []string
}

// Lookup returns the definition registered under name.
func (s *ImageSet) Lookup(name string) (Definition, bool) {
	d, ok := s.images[name]
	return d, ok
}

// Names returns the image names of the set in sorted order. The returned
// slice MUST NOT be mutated.
func (s *ImageSet) Names() []string {
	return s.names
}

// Len returns the number of definitions in the set.
func (s *ImageSet) Len() int {
	return len(s.images)
}

// Theme is the Definition Model: every image set of a loaded theme.
type Theme struct {
	sets  map[string]*ImageSet
	names []string
}

// Set returns the image set with the given name.
func (t *Theme) Set(name string) (*ImageSet, bool) {
	s, ok := t.sets[name]
	return s, ok
}

// Sets returns all image sets sorted by name.
func (t *Theme) Sets() []*ImageSet {
	out := make([]*ImageSet, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, t.sets[n])
	}
	return out
}

// Lookup resolves a fully-qualified "set/image" id.
func (t *Theme) Lookup(id string) (*ImageSet, Definition, bool) {
	setName, name, ok := strings.Cut(id, "/")
	if !ok {
		return nil, nil, false
	}
	set, ok := t.sets[setName]
	if !ok {
		return nil, nil, false
	}
	def, ok := set.images[name]
	if !ok {
		return nil, nil, false
	}
	return set, def, true
}

// Region identifies a rectangle of a source texture.
type Region struct {
	Source string
	Rect   image.Rectangle
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d,%d,%d,%d", r.Source, r.Rect.Min.X, r.Rect.Min.Y, r.Rect.Dx(), r.Rect.Dy())
}

// Regions returns every source region referenced by a leaf definition of
// the theme, deduplicated and in a stable order. WhitePixel is included
// when any solid color image exists.
func (t *Theme) Regions() []Region {
	seen := make(map[Region]struct{})
	var out []Region
	for _, set := range t.Sets() {
		for _, name := range set.names {
			def := set.images[name]
			reg := WhitePixel
			if s, ok := def.(*Simple); !ok || !s.Solid {
				r, ok := leafBounds(def)
				if !ok || r.Empty() {
					continue
				}
				reg = Region{Source: set.Source, Rect: r}
			}
			if _, dup := seen[reg]; dup {
				continue
			}
			seen[reg] = struct{}{}
			out = append(out, reg)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
