package skin

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// UVRect is a normalized texture rectangle on one atlas page.
type UVRect struct {
	U0, V0, U1, V1 float32
}

// Placement locates a packed region on an atlas page.
type Placement struct {
	Page int
	Rect image.Rectangle // page pixels
	UV   UVRect
}

// PackConfig holds atlas packing configuration.
type PackConfig struct {
	// PageSize is the width and height of every output page. Default: 2048
	PageSize int

	// Padding between packed regions, in pixels. Default: 1
	Padding int

	// MaxPages limits the number of pages; 0 means unlimited. Default: 0
	MaxPages int
}

// DefaultPackConfig returns the default configuration.
func DefaultPackConfig() PackConfig {
	return PackConfig{
		PageSize: 2048,
		Padding:  1,
	}
}

// Validate checks if the configuration is valid.
func (c *PackConfig) Validate() error {
	if c.PageSize < 64 {
		return &ConfigError{Field: "PageSize", Reason: "must be at least 64"}
	}
	if c.PageSize > 16384 {
		return &ConfigError{Field: "PageSize", Reason: "must be at most 16384"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.Padding >= c.PageSize/2 {
		return &ConfigError{Field: "Padding", Reason: "must be less than half PageSize"}
	}
	if c.MaxPages < 0 {
		return &ConfigError{Field: "MaxPages", Reason: "must be non-negative"}
	}
	return nil
}

// Atlas holds one or more packed pages and the placement of every packed
// source region. It is immutable once built and safe for concurrent readers.
type Atlas struct {
	// Pages contains the page images indexed by page number.
	Pages    []*image.RGBA
	PageSize int

	order      []Region
	placements map[Region]Placement
	cells      map[lookupCell][]Region // regions by covered source cell
	usedArea   int
}

// lookupCellSize is the edge of the source-space cells Lookup indexes by.
const lookupCellSize = 64

type lookupCell struct {
	source string
	x, y   int
}

func cellOf(source string, p image.Point) lookupCell {
	return lookupCell{source: source, x: floorDiv(p.X, lookupCellSize), y: floorDiv(p.Y, lookupCellSize)}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func newAtlas(pageSize int) *Atlas {
	return &Atlas{
		PageSize:   pageSize,
		placements: make(map[Region]Placement),
		cells:      make(map[lookupCell][]Region),
	}
}

func (a *Atlas) place(r Region, page int, at image.Point) Placement {
	pl := Placement{Page: page, Rect: image.Rectangle{Min: at, Max: at.Add(r.Rect.Size())}}
	pl.UV = a.uv(pl.Rect)
	a.order = append(a.order, r)
	a.placements[r] = pl
	lo := cellOf(r.Source, r.Rect.Min)
	hi := cellOf(r.Source, r.Rect.Max.Sub(image.Pt(1, 1)))
	for y := lo.y; y <= hi.y; y++ {
		for x := lo.x; x <= hi.x; x++ {
			c := lookupCell{source: r.Source, x: x, y: y}
			a.cells[c] = append(a.cells[c], r)
		}
	}
	a.usedArea += r.Rect.Dx() * r.Rect.Dy()
	return pl
}

func (a *Atlas) uv(r image.Rectangle) UVRect {
	size := float32(a.PageSize)
	return UVRect{
		U0: float32(r.Min.X) / size,
		V0: float32(r.Min.Y) / size,
		U1: float32(r.Max.X) / size,
		V1: float32(r.Max.Y) / size,
	}
}

// Pack copies every region out of its source image into shelf-packed pages.
//
// Regions are deduplicated and placed tallest first (ties broken by width,
// source and position), so the same region set always yields the same
// layout. A region that does not fit the current page opens a new page. A
// region larger than a page is a RegionTooLarge *PackError. WhitePixel is
// filled in by Pack itself.
func Pack(sources SourceProvider, regions []Region, cfg PackConfig) (*Atlas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sorted := sortRegions(regions)
	for _, r := range sorted {
		if r.Rect.Dx() > cfg.PageSize || r.Rect.Dy() > cfg.PageSize {
			return nil, &PackError{Kind: RegionTooLarge, Source: r.Source, Rect: r.Rect,
				Err: fmt.Errorf("page size is %d", cfg.PageSize)}
		}
	}

	images := map[string]image.Image{WhitePixelSource: image.NewUniform(color.White)}
	for _, r := range sorted {
		src, ok := images[r.Source]
		if !ok {
			var err error
			src, err = sources.Source(r.Source)
			if err != nil {
				return nil, &PackError{Kind: UnknownSource, Source: r.Source, Err: err}
			}
			images[r.Source] = src
		}
		if !r.Rect.In(src.Bounds()) {
			return nil, &PackError{Kind: RegionOutOfBounds, Source: r.Source, Rect: r.Rect,
				Err: fmt.Errorf("source bounds are %v", src.Bounds())}
		}
	}

	atlas := newAtlas(cfg.PageSize)
	var alloc *ShelfAllocator
	for _, r := range sorted {
		w, h := r.Rect.Dx(), r.Rect.Dy()
		x, y, ok := -1, -1, false
		if alloc != nil {
			x, y, ok = alloc.Allocate(w, h)
		}
		if !ok {
			if cfg.MaxPages > 0 && len(atlas.Pages) == cfg.MaxPages {
				return nil, &PackError{Kind: AtlasFull, Source: r.Source, Rect: r.Rect,
					Err: fmt.Errorf("%d pages in use", cfg.MaxPages)}
			}
			atlas.Pages = append(atlas.Pages, image.NewRGBA(image.Rect(0, 0, cfg.PageSize, cfg.PageSize)))
			alloc = NewShelfAllocator(cfg.PageSize, cfg.PageSize, cfg.Padding)
			x, y, _ = alloc.Allocate(w, h)
		}
		page := len(atlas.Pages) - 1
		pl := atlas.place(r, page, image.Pt(x, y))
		draw.Draw(atlas.Pages[page], pl.Rect, images[r.Source], r.Rect.Min, draw.Src)
	}

	Logger().Debug("skin: atlas packed",
		slog.Int("regions", len(sorted)),
		slog.Int("pages", len(atlas.Pages)),
		slog.Float64("utilization", atlas.Utilization()))
	return atlas, nil
}

func sortRegions(regions []Region) []Region {
	seen := make(map[Region]struct{}, len(regions))
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Rect.Empty() {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Rect.Dy() != b.Rect.Dy() {
			return a.Rect.Dy() > b.Rect.Dy()
		}
		if a.Rect.Dx() != b.Rect.Dx() {
			return a.Rect.Dx() > b.Rect.Dx()
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Rect.Min.Y != b.Rect.Min.Y {
			return a.Rect.Min.Y < b.Rect.Min.Y
		}
		return a.Rect.Min.X < b.Rect.Min.X
	})
	return out
}

// Placement returns where exactly r was packed.
func (a *Atlas) Placement(r Region) (Placement, bool) {
	pl, ok := a.placements[r]
	return pl, ok
}

// Lookup returns the placement of rect from source. The rectangle may be any
// part of a packed region, such as one cell of a grid or a clipped tile.
// Only regions covering the source cell of rect.Min are searched.
func (a *Atlas) Lookup(source string, rect image.Rectangle) (Placement, bool) {
	if pl, ok := a.placements[Region{Source: source, Rect: rect}]; ok {
		return pl, true
	}
	if rect.Empty() {
		return Placement{}, false
	}
	for _, r := range a.cells[cellOf(source, rect.Min)] {
		if !rect.In(r.Rect) {
			continue
		}
		outer := a.placements[r]
		at := outer.Rect.Min.Add(rect.Min.Sub(r.Rect.Min))
		sub := Placement{Page: outer.Page, Rect: image.Rectangle{Min: at, Max: at.Add(rect.Size())}}
		sub.UV = a.uv(sub.Rect)
		return sub, true
	}
	return Placement{}, false
}

// Regions returns the packed regions in placement order. The returned slice
// MUST NOT be mutated.
func (a *Atlas) Regions() []Region {
	return a.order
}

// UVs returns the normalized rectangle of every packed region.
func (a *Atlas) UVs() map[Region]UVRect {
	out := make(map[Region]UVRect, len(a.placements))
	for r, pl := range a.placements {
		out[r] = pl.UV
	}
	return out
}

// Utilization returns the fraction of total page area covered by regions.
func (a *Atlas) Utilization() float64 {
	total := len(a.Pages) * a.PageSize * a.PageSize
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// Digest returns a hex SHA-256 over the layout and page pixels. It does not
// depend on placement order, so an atlas read back with LoadAtlas has the
// digest it was written with.
func (a *Atlas) Digest() string {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	regions := append([]Region(nil), a.order...)
	sort.Slice(regions, func(i, j int) bool { return regions[i].String() < regions[j].String() })
	writeInt(a.PageSize)
	writeInt(len(regions))
	for _, r := range regions {
		pl := a.placements[r]
		h.Write([]byte(r.String()))
		writeInt(pl.Page)
		writeInt(pl.Rect.Min.X)
		writeInt(pl.Rect.Min.Y)
	}
	for _, p := range a.Pages {
		h.Write(p.Pix)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// --- JSON structure types (TexturePacker array format) ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Size   jsonSize             `json:"size"`
	Frames map[string]jsonFrame `json:"frames"`
}

type jsonMeta struct {
	App      string `json:"app"`
	PageSize int    `json:"pageSize"`
	Digest   string `json:"digest,omitempty"`
}

type jsonAtlas struct {
	Textures []jsonTexturePage `json:"textures"`
	Meta     jsonMeta          `json:"meta"`
}

// PageFileName is the image name recorded for page i in atlas JSON.
func PageFileName(i int) string {
	return "page-" + strconv.Itoa(i) + ".png"
}

// MarshalJSON encodes the atlas layout in TexturePacker's multi-page array
// format, one frame per packed region keyed "source:x,y,w,h".
func (a *Atlas) MarshalJSON() ([]byte, error) {
	out := jsonAtlas{
		Textures: make([]jsonTexturePage, len(a.Pages)),
		Meta:     jsonMeta{App: "skin", PageSize: a.PageSize, Digest: a.Digest()},
	}
	for i := range out.Textures {
		out.Textures[i] = jsonTexturePage{
			Image:  PageFileName(i),
			Size:   jsonSize{W: a.PageSize, H: a.PageSize},
			Frames: make(map[string]jsonFrame),
		}
	}
	for _, r := range a.order {
		pl := a.placements[r]
		w, h := r.Rect.Dx(), r.Rect.Dy()
		out.Textures[pl.Page].Frames[r.String()] = jsonFrame{
			Frame:            jsonRect{X: pl.Rect.Min.X, Y: pl.Rect.Min.Y, W: w, H: h},
			SpriteSourceSize: jsonRect{W: w, H: h},
			SourceSize:       jsonSize{W: w, H: h},
		}
	}
	return json.Marshal(out)
}

// LoadAtlas parses atlas JSON and associates the given page images.
// Supports both the hash format (single "frames" object, one page) and the
// array format ("textures" array with per-page frame lists). Frames keyed
// "source:x,y,w,h" map back to that source region; any other key names a
// whole source image whose size is the frame's sourceSize.
func LoadAtlas(jsonData []byte, pages []*image.RGBA) (*Atlas, error) {
	var shape struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &shape); err != nil {
		return nil, fmt.Errorf("skin: failed to parse atlas JSON: %w", err)
	}

	var textures []jsonTexturePage
	switch {
	case shape.Textures != nil:
		if err := json.Unmarshal(shape.Textures, &textures); err != nil {
			return nil, fmt.Errorf("skin: failed to parse atlas textures array: %w", err)
		}
	case shape.Frames != nil:
		var frames map[string]jsonFrame
		if err := json.Unmarshal(shape.Frames, &frames); err != nil {
			return nil, fmt.Errorf("skin: failed to parse atlas frames: %w", err)
		}
		textures = []jsonTexturePage{{Frames: frames}}
	default:
		return nil, fmt.Errorf("skin: atlas JSON has neither \"frames\" nor \"textures\" key")
	}
	if len(textures) != len(pages) {
		return nil, fmt.Errorf("skin: atlas JSON describes %d pages, got %d images", len(textures), len(pages))
	}

	pageSize := 0
	for _, p := range pages {
		b := p.Bounds()
		if b.Dx() != b.Dy() || (pageSize != 0 && b.Dx() != pageSize) {
			return nil, fmt.Errorf("skin: atlas pages must be square and equal in size, got %v", b)
		}
		pageSize = b.Dx()
	}

	atlas := newAtlas(pageSize)
	atlas.Pages = pages
	for i, tex := range textures {
		for _, key := range sortedKeys(tex.Frames) {
			f := tex.Frames[key]
			r, ok := parseRegionKey(key)
			if !ok {
				r = Region{Source: key, Rect: image.Rect(0, 0, f.SourceSize.W, f.SourceSize.H)}
			}
			if f.Rotated || f.Frame.W != r.Rect.Dx() || f.Frame.H != r.Rect.Dy() {
				return nil, fmt.Errorf("skin: atlas frame %q: rotated or trimmed frames are not supported", key)
			}
			atlas.place(r, i, image.Pt(f.Frame.X, f.Frame.Y))
		}
	}
	return atlas, nil
}

// parseRegionKey parses the "source:x,y,w,h" form written by MarshalJSON.
func parseRegionKey(key string) (Region, bool) {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 {
		return Region{}, false
	}
	fields := strings.Split(key[i+1:], ",")
	if len(fields) != 4 {
		return Region{}, false
	}
	var v [4]int
	for j, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Region{}, false
		}
		v[j] = n
	}
	return Region{Source: key[:i], Rect: image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3])}, true
}
