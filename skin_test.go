package skin

import (
	"image/color"
	"testing"
)

// --- Rect.Contains ---

func TestRectContains(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"left edge", 10, 40, true},
		{"right edge", 110, 40, true},
		{"outside left", 9, 40, false},
		{"outside right", 111, 40, false},
		{"outside above", 50, 19, false},
		{"outside below", 50, 71, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Contains(tt.x, tt.y)
			if got != tt.expect {
				t.Errorf("%v.Contains(%v, %v) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}
}

// --- Rect.Empty / Rect.Area ---

func TestRectArea(t *testing.T) {
	tests := []struct {
		name  string
		r     Rect
		empty bool
		area  float64
	}{
		{"regular", Rect{0, 0, 4, 3}, false, 12},
		{"fractional", Rect{1, 1, 0.5, 0.5}, false, 0.25},
		{"zero width", Rect{0, 0, 0, 10}, true, 0},
		{"negative height", Rect{0, 0, 10, -2}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
			if got := tt.r.Area(); got != tt.area {
				t.Errorf("Area() = %v, want %v", got, tt.area)
			}
		})
	}
}

// --- Color ---

func TestColorWhite(t *testing.T) {
	if ColorWhite != (Color{1, 1, 1, 1}) {
		t.Errorf("ColorWhite = %+v", ColorWhite)
	}
	if !ColorWhite.IsWhite() {
		t.Error("ColorWhite.IsWhite() = false")
	}
	if (Color{1, 1, 1, 0.5}).IsWhite() {
		t.Error("translucent white should not report IsWhite")
	}
}

func TestColorRGBAPremultiplies(t *testing.T) {
	tests := []struct {
		c    Color
		want color.RGBA
	}{
		{ColorWhite, color.RGBA{255, 255, 255, 255}},
		{Color{1, 0, 0, 0.5}, color.RGBA{128, 0, 0, 128}},
		{Color{2, -1, 0, 1}, color.RGBA{255, 0, 0, 255}},
		{Color{}, color.RGBA{}},
	}
	for _, tt := range tests {
		if got := tt.c.RGBA(); got != tt.want {
			t.Errorf("%+v.RGBA() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

// --- FillMode ---

func TestFillModeRoundTrip(t *testing.T) {
	for _, f := range []FillMode{FillNone, FillStretch, FillRepeat, FillCenter} {
		got, err := ParseFillMode(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFillMode(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseFillMode("stretch"); err == nil {
		t.Error("fill names are case-sensitive")
	}
	if s := FillMode(9).String(); s != "FillMode(9)" {
		t.Errorf("String() = %q", s)
	}
}

func TestScalePixels(t *testing.T) {
	tests := []struct {
		v     int
		scale float64
		want  int
	}{
		{10, 1, 10},
		{10, 2, 20},
		{3, 0.5, 2},
		{5, 0.5, 3},
		{7, 1.25, 9},
		{1, 0.1, 0},
	}
	for _, tt := range tests {
		if got := scalePixels(tt.v, tt.scale); got != tt.want {
			t.Errorf("scalePixels(%d, %v) = %d, want %d", tt.v, tt.scale, got, tt.want)
		}
	}
}

// --- Logger ---

func TestLoggerDefaultsToNop(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("SetLogger(nil) should restore the nop logger")
	}
}

// --- Errors ---

func TestLoadErrorMessage(t *testing.T) {
	err := &LoadError{Kind: CyclicReference, Set: "ui", Name: "a", Path: []string{"a", "b", "a"}}
	want := `skin: image set "ui": image "a": cyclic reference: a -> b -> a`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestPackErrorMessage(t *testing.T) {
	err := &PackError{Kind: UnknownSource, Source: "gui"}
	if got := err.Error(); got != `skin: unknown source image: source "gui"` {
		t.Errorf("Error() = %q", got)
	}
}
