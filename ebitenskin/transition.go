package ebitenskin

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/skin"
)

// Layer is one image of a cross-fade with the opacity to draw it at.
type Layer struct {
	Name  string
	Alpha float32
}

// Transition cross-fades between the images a widget shows as its state
// changes. Call Update(target, dt) each frame with the image selected for
// the current flags; the previous image fades out while the new one fades
// in.
//
// There is no global transition manager; users call Update themselves.
type Transition struct {
	Duration float32 // seconds
	Ease     ease.TweenFunc

	current  string
	previous string
	tween    *gween.Tween
	alpha    float32
	Done     bool
}

// NewTransition creates a transition with the given fade duration in
// seconds. A nil fn means ease.Linear.
func NewTransition(duration float32, fn ease.TweenFunc) *Transition {
	if fn == nil {
		fn = ease.Linear
	}
	return &Transition{Duration: duration, Ease: fn, alpha: 1, Done: true}
}

// Update advances the fade by dt seconds toward target. A target different
// from the current image restarts the fade from it.
func (t *Transition) Update(target string, dt float32) {
	if target != t.current {
		if t.current == "" || t.Duration <= 0 {
			t.current, t.previous = target, ""
			t.alpha, t.Done, t.tween = 1, true, nil
			return
		}
		t.previous, t.current = t.current, target
		t.tween = gween.New(0, 1, t.Duration, t.Ease)
		t.alpha, t.Done = 0, false
	}
	if t.Done {
		return
	}

	val, finished := t.tween.Update(dt)
	t.alpha = val
	if finished {
		t.alpha, t.Done, t.previous, t.tween = 1, true, "", nil
	}
}

// Current returns the image being faded in, or shown once the fade is done.
func (t *Transition) Current() string {
	return t.current
}

// Layers returns the images to draw, bottom first. While a fade is running
// the outgoing image is drawn under the incoming one.
func (t *Transition) Layers() []Layer {
	if t.current == "" {
		return nil
	}
	if t.Done || t.previous == "" {
		return []Layer{{Name: t.current, Alpha: 1}}
	}
	return []Layer{
		{Name: t.previous, Alpha: 1 - t.alpha},
		{Name: t.current, Alpha: t.alpha},
	}
}

// Widget draws one named image of a set with state cross-fades.
type Widget struct {
	Set        *skin.ImageSet
	Image      string
	Transition *Transition

	buf []skin.DrawPrimitive
}

// NewWidget returns a widget that fades between states over duration
// seconds.
func NewWidget(set *skin.ImageSet, name string, duration float32, fn ease.TweenFunc) *Widget {
	return &Widget{Set: set, Image: name, Transition: NewTransition(duration, fn)}
}

// Update selects the image for flags and advances the fade by dt seconds.
func (w *Widget) Update(flags skin.StateFlags, dt float32) {
	w.Transition.Update(w.Set.Select(w.Image, flags), dt)
}

// Draw renders every visible layer into rect at the given animation time.
func (w *Widget) Draw(r *Renderer, dst *ebiten.Image, rect skin.Rect, elapsed time.Duration, opts *DrawOptions) {
	var lo DrawOptions
	if opts != nil {
		lo = *opts
	}
	base := lo.ColorScale
	for _, layer := range w.Transition.Layers() {
		if layer.Alpha <= 0 {
			continue
		}
		w.buf = w.Set.AppendDraw(w.buf[:0], layer.Name, skin.StateNormal, rect, elapsed)
		lo.ColorScale = base
		lo.ColorScale.ScaleAlpha(layer.Alpha)
		r.Draw(dst, w.buf, &lo)
	}
}
