package skin

import (
	"fmt"
	"image/color"
	"math"
)

// Color is an RGBA tint with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// RGBA returns the premultiplied 8-bit form of c.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A)*255 + 0.5),
		G: uint8(clamp01(c.G*c.A)*255 + 0.5),
		B: uint8(clamp01(c.B*c.A)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

// IsWhite reports whether c leaves sampled pixels unchanged.
func (c Color) IsWhite() bool {
	return c == ColorWhite
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rect is an axis-aligned rectangle in destination layout units. The
// coordinate system has its origin at the top-left, with Y increasing
// downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Empty reports whether r covers no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns Width*Height, or zero for empty rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// FillMode selects how a Simple image maps onto a destination whose size
// differs from the image's own size.
type FillMode uint8

const (
	FillNone    FillMode = iota // drawn once at native size from the destination origin
	FillStretch                 // scaled to cover the destination exactly
	FillRepeat                  // tiled at native size, the last row/column clipped
	FillCenter                  // drawn once at native size, centered
)

var fillModeNames = [...]string{
	FillNone:    "None",
	FillStretch: "Stretch",
	FillRepeat:  "Repeat",
	FillCenter:  "Center",
}

func (f FillMode) String() string {
	if int(f) < len(fillModeNames) {
		return fillModeNames[f]
	}
	return fmt.Sprintf("FillMode(%d)", uint8(f))
}

// ParseFillMode parses a fill name as written in theme documents.
func ParseFillMode(s string) (FillMode, error) {
	for i, name := range fillModeNames {
		if name == s {
			return FillMode(i), nil
		}
	}
	return FillNone, fmt.Errorf("skin: unknown fill %q", s)
}

// scalePixels applies a set scale factor to one pixel coordinate.
func scalePixels(v int, scale float64) int {
	if scale == 1 {
		return v
	}
	return int(math.Round(float64(v) * scale))
}
