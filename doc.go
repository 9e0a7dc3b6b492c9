// Package skin resolves theme images for UI widgets and packs their source
// regions into texture atlases.
//
// A theme document declares image sets. Each set cuts named images out of
// one source texture: plain regions, nine-patch and three-patch grids,
// timed animations, per-state selections and aliases. [Load] validates the
// documents into an immutable [Theme]; [Pack] copies every region a theme
// references into shelf-packed atlas pages.
//
// # Quick start
//
//	doc, err := skin.ReadDocument(os.DirFS("assets"), "theme.toml")
//	if err != nil { ... }
//	gen, err := skin.Build([]*skin.Document{doc},
//		skin.NewFSProvider(os.DirFS("assets")), skin.DefaultPackConfig())
//	if err != nil { ... }
//
//	// each frame:
//	prims := gen.Draw("ui/button", skin.StateHover, skin.Rect{X: 10, Y: 10, Width: 120, Height: 32}, elapsed)
//
// Each [DrawPrimitive] maps a source rectangle onto a destination
// rectangle. Find the source on an atlas page with [Atlas.Lookup], or hand
// the primitives to a renderer: package ebitenskin draws them with
// Ebitengine, package raster on the CPU.
//
// # Documents
//
// Theme files may be TOML, YAML or JSON ([DecodeDocument], [ReadDocument]).
// The variant of each image entry is decided by which field it carries:
//
//	[image_sets.ui]
//	source = "ui"
//	scale = 1.0
//
//	[image_sets.ui.images.frame]
//	position = [0, 0]
//	grid_size = [8, 8]          # nine-patch, 24x24 source pixels
//
//	[image_sets.ui.images.button]
//	states = { Normal = "frame", Hover = "frame_lit", "Active + Pressed" = "frame_down" }
//
//	[image_sets.ui.images.spinner]
//	frames = ["spin0", "spin1", "spin2"]
//	frame_time_millis = 100
//
// Several documents may be passed to [Load]; they are merged set by set.
//
// # States
//
// [StateMap.Resolve] picks an image by precedence: Disabled, then
// Active+Pressed, Active+Hover and Active, then Pressed and Hover (only
// while Active is unset), then Normal. Missing keys fall through.
//
// # Hot reload
//
// A [Store] publishes one [Generation] (theme plus atlas) at a time.
// [Store.Reload] builds off to the side and swaps the pointer only if no
// newer reload started meanwhile; readers calling [Store.Current] never
// see a theme paired with another generation's atlas.
//
// # Logging
//
// The package is silent by default. Call [SetLogger] with any
// [log/slog.Logger] to receive load, pack and reload events.
package skin
