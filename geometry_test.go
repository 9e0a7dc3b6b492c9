package skin

import (
	"image"
	"math"
	"testing"
	"time"
)

func geometrySet(t *testing.T) *ImageSet {
	t.Helper()
	theme, err := loadImages(map[string]ImageDocument{
		"icon":    {Position: []int{0, 0}, Size: []int{8, 8}},
		"stretch": {Position: []int{0, 0}, Size: []int{8, 8}, Fill: "Stretch"},
		"center":  {Position: []int{0, 0}, Size: []int{8, 8}, Fill: "Center"},
		"tile":    {Position: []int{0, 0}, Size: []int{8, 8}, Fill: "Repeat", Color: "red"},
		"dot":     {Position: []int{0, 0}, Size: []int{1, 1}, Fill: "Repeat"},
		"solid":   {Color: "#00ff00"},
		"frame":   {Position: []int{16, 0}, GridSize: []int{8, 8}},
		"big":     {Position: []int{0, 32}, GridSize: []int{24, 24}},
		"bar":     {Position: []int{0, 104}, GridSizeHoriz: []int{4, 6}},
		"column":  {Position: []int{16, 104}, GridSizeVert: []int{6, 4}},
		"blank":   {From: strPtr(Empty)},
		"window":  {From: strPtr("frame")},
		"anim":    {Frames: []string{"icon", "frame", "blank"}, FrameTimeMillis: intPtr(100)},
		"once":    {Frames: []string{"icon", "frame"}, FrameTimeMillis: intPtr(100), Once: boolPtr(true)},
		"inner":   {States: map[string]string{"Normal": "icon", "Pressed": "frame"}},
		"button":  {States: map[string]string{"Normal": "inner", "Hover": "window", "Disabled": "blank"}},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mustSet(t, theme, "ui")
}

func boolPtr(v bool) *bool { return &v }

func TestDrawSimpleFillModes(t *testing.T) {
	set := geometrySet(t)
	dst := Rect{X: 10, Y: 20, Width: 30, Height: 16}
	tests := []struct {
		name string
		want Rect
	}{
		{"icon", Rect{X: 10, Y: 20, Width: 8, Height: 8}},
		{"stretch", Rect{X: 10, Y: 20, Width: 30, Height: 16}},
		{"center", Rect{X: 21, Y: 24, Width: 8, Height: 8}},
	}
	for _, tt := range tests {
		prims := set.Draw(tt.name, StateNormal, dst, 0)
		if len(prims) != 1 {
			t.Fatalf("%s: %d primitives, want 1", tt.name, len(prims))
		}
		p := prims[0]
		if p.Dst != tt.want {
			t.Errorf("%s: Dst = %v, want %v", tt.name, p.Dst, tt.want)
		}
		if p.Src != image.Rect(0, 0, 8, 8) || p.Source != "gui" || !p.Color.IsWhite() {
			t.Errorf("%s: primitive = %+v", tt.name, p)
		}
	}
}

func TestDrawRepeatClipsLastTile(t *testing.T) {
	set := geometrySet(t)
	prims := set.Draw("tile", StateNormal, Rect{Width: 20, Height: 12}, 0)

	// 3 columns (8, 8, 4) by 2 rows (8, 4).
	if len(prims) != 6 {
		t.Fatalf("%d primitives, want 6", len(prims))
	}
	last := prims[5]
	if last.Dst != (Rect{X: 16, Y: 8, Width: 4, Height: 4}) {
		t.Errorf("last tile Dst = %v", last.Dst)
	}
	if last.Src != image.Rect(0, 0, 4, 4) {
		t.Errorf("last tile Src = %v, want clipped 4x4", last.Src)
	}
	if last.Color != (Color{1, 0, 0, 1}) {
		t.Errorf("tile color = %+v, want red", last.Color)
	}
	var area float64
	for _, p := range prims {
		area += p.Dst.Area()
	}
	if area != 240 {
		t.Errorf("tiles cover %v, want 240", area)
	}
}

func TestDrawRepeatFractionalClip(t *testing.T) {
	set := geometrySet(t)
	prims := set.Draw("tile", StateNormal, Rect{Width: 10.5, Height: 8}, 0)
	if len(prims) != 2 {
		t.Fatalf("%d primitives, want 2", len(prims))
	}
	if prims[1].Dst.Width != 2.5 || prims[1].Src.Dx() != 3 {
		t.Errorf("partial tile = Dst %v Src %v, want width 2.5 from 3 source pixels", prims[1].Dst, prims[1].Src)
	}
}

func TestDrawSolidColor(t *testing.T) {
	set := geometrySet(t)
	dst := Rect{X: 5, Y: 6, Width: 30, Height: 10}
	prims := set.Draw("solid", StateNormal, dst, 0)
	if len(prims) != 1 {
		t.Fatalf("%d primitives, want 1", len(prims))
	}
	p := prims[0]
	if p.Source != WhitePixelSource || p.Src != WhitePixel.Rect {
		t.Errorf("solid samples %s %v, want the white pixel", p.Source, p.Src)
	}
	if p.Dst != dst {
		t.Errorf("Dst = %v, want %v", p.Dst, dst)
	}
	if p.Color != (Color{G: 1, A: 1}) {
		t.Errorf("Color = %+v, want green", p.Color)
	}

	p = set.Draw("solid", StateNormal, Rect{Width: -4, Height: math.Inf(1)}, 0)[0]
	if p.Dst.Width != 0 || p.Dst.Height != 0 {
		t.Errorf("degenerate Dst = %v, want zero size", p.Dst)
	}
}

func TestDrawNonFiniteDestination(t *testing.T) {
	set := geometrySet(t)
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		if n := len(set.Draw("dot", StateNormal, Rect{Width: v, Height: 1}, 0)); n != 0 {
			t.Errorf("repeat width %v: %d primitives, want 0", v, n)
		}
		if n := len(set.Draw("dot", StateNormal, Rect{Width: 1, Height: v}, 0)); n != 0 {
			t.Errorf("repeat height %v: %d primitives, want 0", v, n)
		}
		p := set.Draw("stretch", StateNormal, Rect{Width: v, Height: v}, 0)[0]
		if p.Dst.Width != 0 || p.Dst.Height != 0 {
			t.Errorf("stretch %v: Dst = %v, want zero size", v, p.Dst)
		}
	}
}

func TestDrawRepeatBoundsTileCount(t *testing.T) {
	set := geometrySet(t)

	prims := set.Draw("dot", StateNormal, Rect{Width: 4000, Height: 4000}, 0)
	// 1x1 tiles enlarge 64 times: 63 by 63 tiles, the last ones 32 wide.
	if len(prims) != 63*63 {
		t.Fatalf("%d primitives, want %d", len(prims), 63*63)
	}
	if prims[0].Dst != (Rect{Width: 64, Height: 64}) || prims[0].Src != image.Rect(0, 0, 1, 1) {
		t.Errorf("first tile = Dst %v Src %v", prims[0].Dst, prims[0].Src)
	}
	last := prims[len(prims)-1]
	if last.Dst != (Rect{X: 3968, Y: 3968, Width: 32, Height: 32}) || last.Src != image.Rect(0, 0, 1, 1) {
		t.Errorf("last tile = Dst %v Src %v", last.Dst, last.Src)
	}
	var area float64
	for _, p := range prims {
		area += p.Dst.Area()
	}
	if area != 4000*4000 {
		t.Errorf("tiles cover %v, want %v", area, 4000*4000)
	}

	for _, dst := range []Rect{{Width: 1e6, Height: 1}, {Width: 1e300, Height: 1e300}} {
		if n := len(set.Draw("dot", StateNormal, dst, 0)); n == 0 || n > MaxRepeatTiles {
			t.Errorf("%v: %d primitives, want 1..%d", dst, n, MaxRepeatTiles)
		}
	}

	// Native tiling is kept while it fits.
	if n := len(set.Draw("dot", StateNormal, Rect{Width: 64, Height: 64}, 0)); n != 4096 {
		t.Errorf("64x64: %d primitives, want 4096", n)
	}
}

func TestDrawNinePatch(t *testing.T) {
	set := geometrySet(t)
	prims := set.Draw("frame", StateNormal, Rect{X: 100, Y: 50, Width: 48, Height: 32}, 0)
	if len(prims) != 9 {
		t.Fatalf("%d primitives, want 9", len(prims))
	}
	want := [9]Rect{
		{100, 50, 8, 8}, {108, 50, 32, 8}, {140, 50, 8, 8},
		{100, 58, 8, 16}, {108, 58, 32, 16}, {140, 58, 8, 16},
		{100, 74, 8, 8}, {108, 74, 32, 8}, {140, 74, 8, 8},
	}
	for i, p := range prims {
		if p.Dst != want[i] {
			t.Errorf("cell %d Dst = %v, want %v", i, p.Dst, want[i])
		}
		col, row := i%3, i/3
		wantSrc := image.Rect(16+col*8, row*8, 24+col*8, 8+row*8)
		if p.Src != wantSrc {
			t.Errorf("cell %d Src = %v, want %v", i, p.Src, wantSrc)
		}
	}
}

func TestDrawNinePatchCollapses(t *testing.T) {
	set := geometrySet(t)
	prims := set.Draw("big", StateNormal, Rect{Width: 48, Height: 48}, 0)
	if len(prims) != 9 {
		t.Fatalf("%d primitives, want 9", len(prims))
	}
	for _, i := range []int{1, 3, 4, 5, 7} {
		if prims[i].Dst.Area() != 0 {
			t.Errorf("cell %d should collapse, Dst = %v", i, prims[i].Dst)
		}
	}
	// Corners touch at the center.
	if tl, br := prims[0].Dst, prims[8].Dst; tl.X+tl.Width != br.X || tl.Y+tl.Height != br.Y {
		t.Errorf("corners %v and %v do not touch", tl, br)
	}
	if prims[8].Dst != (Rect{X: 24, Y: 24, Width: 24, Height: 24}) {
		t.Errorf("bottom-right Dst = %v", prims[8].Dst)
	}
}

func TestDrawNinePatchShrinksBelowTwoCells(t *testing.T) {
	set := geometrySet(t)
	for _, size := range []float64{0, 1, 10} {
		prims := set.Draw("frame", StateNormal, Rect{Width: size, Height: size}, 0)
		if len(prims) != 9 {
			t.Fatalf("size %v: %d primitives, want 9", size, len(prims))
		}
		var area float64
		for i, p := range prims {
			if p.Dst.Width < 0 || p.Dst.Height < 0 || math.IsNaN(p.Dst.Width) {
				t.Errorf("size %v: cell %d has invalid Dst %v", size, i, p.Dst)
			}
			area += p.Dst.Area()
		}
		if area != size*size {
			t.Errorf("size %v: cells cover %v, want %v", size, area, size*size)
		}
		if prims[0].Dst.Width != size/2 {
			t.Errorf("size %v: corner width %v, want %v", size, prims[0].Dst.Width, size/2)
		}
	}
}

func TestDrawThreePatch(t *testing.T) {
	set := geometrySet(t)

	bar := set.Draw("bar", StateNormal, Rect{Width: 40, Height: 10}, 0)
	if len(bar) != 3 {
		t.Fatalf("bar: %d primitives, want 3", len(bar))
	}
	wantBar := [3]Rect{{0, 0, 4, 10}, {4, 0, 32, 10}, {36, 0, 4, 10}}
	for i, p := range bar {
		if p.Dst != wantBar[i] {
			t.Errorf("bar %d Dst = %v, want %v", i, p.Dst, wantBar[i])
		}
		if p.Src != image.Rect(i*4, 104, i*4+4, 110) {
			t.Errorf("bar %d Src = %v", i, p.Src)
		}
	}

	col := set.Draw("column", StateNormal, Rect{X: 5, Width: 6, Height: 6}, 0)
	if len(col) != 3 {
		t.Fatalf("column: %d primitives, want 3", len(col))
	}
	wantCol := [3]Rect{{5, 0, 6, 3}, {5, 3, 6, 0}, {5, 3, 6, 3}}
	for i, p := range col {
		if p.Dst != wantCol[i] {
			t.Errorf("column %d Dst = %v, want %v", i, p.Dst, wantCol[i])
		}
	}
}

func TestDrawAliasAndEmpty(t *testing.T) {
	set := geometrySet(t)
	if prims := set.Draw("blank", StateNormal, Rect{Width: 10, Height: 10}, 0); len(prims) != 0 {
		t.Errorf("alias to empty drew %d primitives", len(prims))
	}
	if prims := set.Draw("missing", StateNormal, Rect{Width: 10, Height: 10}, 0); len(prims) != 0 {
		t.Errorf("unknown image drew %d primitives", len(prims))
	}
	a := set.Draw("window", StateNormal, Rect{Width: 30, Height: 30}, 0)
	b := set.Draw("frame", StateNormal, Rect{Width: 30, Height: 30}, 0)
	if len(a) != 9 || len(a) != len(b) {
		t.Fatalf("alias drew %d primitives, target %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("alias primitive %d = %+v, target %+v", i, a[i], b[i])
		}
	}
}

func TestDrawAnimation(t *testing.T) {
	set := geometrySet(t)
	dst := Rect{Width: 30, Height: 30}
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 1},
		{99 * time.Millisecond, 1},
		{100 * time.Millisecond, 9},
		{250 * time.Millisecond, 0},
		{300 * time.Millisecond, 1},
		{-50 * time.Millisecond, 0},
		{-150 * time.Millisecond, 9},
	}
	for _, tt := range tests {
		if got := len(set.Draw("anim", StateNormal, dst, tt.elapsed)); got != tt.want {
			t.Errorf("elapsed %v: %d primitives, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestDrawAnimationIsPeriodic(t *testing.T) {
	set := geometrySet(t)
	def, _ := set.Lookup("anim")
	period := def.(*Animated).Period()
	if period != 300*time.Millisecond {
		t.Fatalf("Period() = %v, want 300ms", period)
	}
	dst := Rect{Width: 30, Height: 30}
	for e := time.Duration(0); e < period; e += 37 * time.Millisecond {
		a := set.Draw("anim", StateNormal, dst, e)
		b := set.Draw("anim", StateNormal, dst, e+3*period)
		if len(a) != len(b) {
			t.Errorf("elapsed %v: %d primitives, one period later %d", e, len(a), len(b))
		}
	}
}

func TestAnimatedOnceHoldsLastFrame(t *testing.T) {
	a := &Animated{FrameTime: 100 * time.Millisecond, Frames: []string{"a", "b", "c"}, Once: true}
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{-time.Second, 0},
		{0, 0},
		{150 * time.Millisecond, 1},
		{299 * time.Millisecond, 2},
		{time.Hour, 2},
	}
	for _, tt := range tests {
		if got := a.FrameIndex(tt.elapsed); got != tt.want {
			t.Errorf("FrameIndex(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestDrawStateMapNested(t *testing.T) {
	set := geometrySet(t)
	dst := Rect{Width: 30, Height: 30}
	tests := []struct {
		flags StateFlags
		want  int
	}{
		{StateNormal, 1},                // button -> inner -> icon
		{StatePressed, 9},               // button -> inner[Pressed] -> frame
		{StateHover, 9},                 // button -> window -> frame
		{StateDisabled | StateHover, 0}, // button -> blank -> empty
		{StateActive | StatePressed, 1}, // Active skips Pressed at both levels
	}
	for _, tt := range tests {
		if got := len(set.Draw("button", tt.flags, dst, 0)); got != tt.want {
			t.Errorf("flags %v: %d primitives, want %d", tt.flags, got, tt.want)
		}
	}
}

func TestSelect(t *testing.T) {
	set := geometrySet(t)
	tests := []struct {
		name  string
		flags StateFlags
		want  string
	}{
		{"button", StateNormal, "icon"},
		{"button", StateHover, "frame"},
		{"button", StateDisabled, Empty},
		{"anim", StateNormal, "anim"},
		{"icon", StateHover, "icon"},
	}
	for _, tt := range tests {
		if got := set.Select(tt.name, tt.flags); got != tt.want {
			t.Errorf("Select(%q, %v) = %q, want %q", tt.name, tt.flags, got, tt.want)
		}
	}
}

func TestNaturalSize(t *testing.T) {
	set := geometrySet(t)
	tests := []struct {
		name string
		want image.Point
	}{
		{"icon", image.Pt(8, 8)},
		{"frame", image.Pt(24, 24)},
		{"bar", image.Pt(12, 6)},
		{"column", image.Pt(6, 12)},
		{"button", image.Pt(8, 8)},
		{"anim", image.Pt(8, 8)},
		{"blank", image.Point{}},
		{"missing", image.Point{}},
	}
	for _, tt := range tests {
		if got := set.NaturalSize(tt.name); got != tt.want {
			t.Errorf("NaturalSize(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAppendDrawReusesBuffer(t *testing.T) {
	set := geometrySet(t)
	buf := make([]DrawPrimitive, 0, 16)
	buf = set.AppendDraw(buf, "icon", StateNormal, Rect{Width: 8, Height: 8}, 0)
	buf = set.AppendDraw(buf, "frame", StateNormal, Rect{Width: 24, Height: 24}, 0)
	if len(buf) != 10 {
		t.Errorf("len = %d, want 10", len(buf))
	}
}

func TestInstantiateStateMapPanics(t *testing.T) {
	set := geometrySet(t)
	def, _ := set.Lookup("button")
	defer func() {
		if recover() == nil {
			t.Error("expected panic instantiating an unresolved state map")
		}
	}()
	set.Instantiate(def, Rect{Width: 8, Height: 8}, 0)
}

func TestSpans(t *testing.T) {
	tests := []struct {
		origin, length, cell float64
		pos, size            [3]float64
	}{
		{0, 48, 8, [3]float64{0, 8, 40}, [3]float64{8, 32, 8}},
		{10, 16, 8, [3]float64{10, 18, 18}, [3]float64{8, 0, 8}},
		{0, 10, 8, [3]float64{0, 5, 5}, [3]float64{5, 0, 5}},
		{0, -4, 8, [3]float64{0, 0, 0}, [3]float64{0, 0, 0}},
	}
	for _, tt := range tests {
		pos, size := spans(tt.origin, tt.length, tt.cell)
		if pos != tt.pos || size != tt.size {
			t.Errorf("spans(%v, %v, %v) = %v %v, want %v %v",
				tt.origin, tt.length, tt.cell, pos, size, tt.pos, tt.size)
		}
	}
}
