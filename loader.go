package skin

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"
)

// LoadOptions tunes Load.
type LoadOptions struct {
	// SourceBounds, when set, reports the pixel size of a source texture so
	// grid definitions can be checked against it at load time. Sources it
	// does not know are not checked.
	SourceBounds func(source string) (image.Point, bool)
}

// Load builds a Theme from one or more documents. The same set may appear
// in several documents as long as source and scale agree; an image defined
// twice in one set is a DuplicateName error. The first problem found is
// returned as a *LoadError.
func Load(docs ...*Document) (*Theme, error) {
	return LoadWithOptions(LoadOptions{}, docs...)
}

// LoadWithOptions is Load with explicit options.
func LoadWithOptions(opts LoadOptions, docs ...*Document) (*Theme, error) {
	pending, order, err := mergeDocuments(docs)
	if err != nil {
		return nil, err
	}

	theme := &Theme{sets: make(map[string]*ImageSet, len(pending))}
	for _, name := range order {
		p := pending[name]
		set, err := buildSet(name, p, opts)
		if err != nil {
			return nil, err
		}
		theme.sets[name] = set
	}
	theme.names = sortedKeys(theme.sets)
	return theme, nil
}

type pendingSet struct {
	source string
	scale  float64
	images map[string]ImageDocument
}

func mergeDocuments(docs []*Document) (map[string]*pendingSet, []string, error) {
	pending := make(map[string]*pendingSet)
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, setName := range sortedKeys(doc.ImageSets) {
			sd := doc.ImageSets[setName]
			if err := checkName(setName); err != nil {
				return nil, nil, malformed(setName, "", "set name %v", err)
			}
			if sd.Source == "" {
				return nil, nil, malformed(setName, "", "source is required")
			}
			scale := 1.0
			if sd.Scale != nil {
				scale = *sd.Scale
			}
			if !(scale > 0) || math.IsInf(scale, 0) {
				return nil, nil, malformed(setName, "", "scale must be a positive number, got %v", scale)
			}

			p, ok := pending[setName]
			if !ok {
				p = &pendingSet{source: sd.Source, scale: scale, images: make(map[string]ImageDocument)}
				pending[setName] = p
			} else if p.source != sd.Source || p.scale != scale {
				return nil, nil, malformed(setName, "", "redefined with source %q scale %v, previously %q scale %v",
					sd.Source, scale, p.source, p.scale)
			}

			for _, imgName := range sortedKeys(sd.Images) {
				if err := checkName(imgName); err != nil {
					return nil, nil, malformed(setName, imgName, "image name %v", err)
				}
				if imgName == Empty {
					return nil, nil, malformed(setName, imgName, "%q is reserved", Empty)
				}
				if _, dup := p.images[imgName]; dup {
					return nil, nil, &LoadError{Kind: DuplicateName, Set: setName, Name: imgName}
				}
				p.images[imgName] = sd.Images[imgName]
			}
		}
	}
	return pending, sortedKeys(pending), nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("must not be empty")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("%q must not contain '/'", name)
	}
	return nil
}

func buildSet(name string, p *pendingSet, opts LoadOptions) (*ImageSet, error) {
	set := &ImageSet{
		Name:   name,
		Source: p.source,
		Scale:  p.scale,
		images: make(map[string]Definition, len(p.images)),
	}
	set.names = sortedKeys(p.images)

	// (1) parse every entry on its own, scaling pixel fields.
	for _, imgName := range set.names {
		def, err := parseImage(p.images[imgName], p.scale)
		if err != nil {
			err.Set, err.Name = name, imgName
			return nil, err
		}
		set.images[imgName] = def
	}

	// (2) every reference must exist.
	for _, imgName := range set.names {
		for _, ref := range references(set.images[imgName]) {
			if ref == Empty {
				continue
			}
			if _, ok := set.images[ref]; !ok {
				return nil, &LoadError{Kind: UnknownReference, Set: name, Name: imgName, Ref: ref}
			}
		}
	}

	// (3) no reference cycles.
	if err := checkCycles(set); err != nil {
		return nil, err
	}

	// (4) frames terminate in leaves; grids fit their cells.
	for _, imgName := range set.names {
		if err := checkDefinition(set, imgName, opts); err != nil {
			return nil, err
		}
	}

	logUnreachableStates(set)
	Logger().Debug("skin: image set loaded",
		slog.String("set", name),
		slog.String("source", set.Source),
		slog.Float64("scale", set.Scale),
		slog.Int("images", len(set.images)))
	return set, nil
}

// imageFields collects which variant-selecting keys an entry carries.
func imageFields(d ImageDocument) []string {
	var present []string
	if d.Size != nil {
		present = append(present, "size")
	}
	if d.GridSize != nil {
		present = append(present, "grid_size")
	}
	if d.GridSizeHoriz != nil {
		present = append(present, "grid_size_horiz")
	}
	if d.GridSizeVert != nil {
		present = append(present, "grid_size_vert")
	}
	if d.Frames != nil {
		present = append(present, "frames")
	}
	if d.States != nil {
		present = append(present, "states")
	}
	if d.From != nil {
		present = append(present, "from")
	}
	return present
}

func parseImage(d ImageDocument, scale float64) (Definition, *LoadError) {
	selectors := imageFields(d)
	if len(selectors) == 0 && d.Color != "" {
		selectors = []string{"color"}
	}
	switch len(selectors) {
	case 0:
		return nil, malformed("", "", "no image kind: expected one of size, grid_size, grid_size_horiz, grid_size_vert, frames, states, from, or color alone")
	case 1:
	default:
		return nil, malformed("", "", "conflicting image kinds: %s", strings.Join(selectors, ", "))
	}

	kind := selectors[0]
	var extra []string
	note := func(present bool, field string) {
		if present {
			extra = append(extra, field)
		}
	}
	isRegion := kind == "size" || strings.HasPrefix(kind, "grid_size")
	note(!isRegion && d.Position != nil, "position")
	note(!isRegion && kind != "color" && d.Color != "", "color")
	note(kind != "size" && d.Fill != "", "fill")
	note(kind != "frames" && d.FrameTimeMillis != nil, "frame_time_millis")
	note(kind != "frames" && d.Once != nil, "once")
	if len(extra) > 0 {
		return nil, malformed("", "", "fields %s are not valid with %s", strings.Join(extra, ", "), kind)
	}

	switch kind {
	case "color":
		c, err := ParseColor(d.Color)
		if err != nil {
			return nil, &LoadError{Kind: MalformedDocument, Err: err}
		}
		return &Simple{Solid: true, Fill: FillStretch, Color: c}, nil

	case "from":
		if *d.From == "" {
			return nil, malformed("", "", "from must name an image")
		}
		return &Alias{Target: *d.From}, nil

	case "frames":
		if len(d.Frames) == 0 {
			return nil, malformed("", "", "frames must not be empty")
		}
		if d.FrameTimeMillis == nil || *d.FrameTimeMillis <= 0 || int64(*d.FrameTimeMillis) > math.MaxUint32 {
			return nil, malformed("", "", "frame_time_millis must be a positive number of milliseconds below 2^32")
		}
		anim := &Animated{
			FrameTime: time.Duration(*d.FrameTimeMillis) * time.Millisecond,
			Frames:    append([]string(nil), d.Frames...),
		}
		if d.Once != nil {
			anim.Once = *d.Once
		}
		return anim, nil

	case "states":
		m := &StateMap{}
		for _, key := range sortedKeys(d.States) {
			flags, err := ParseStateKey(key)
			if err != nil {
				return nil, &LoadError{Kind: MalformedDocument, Err: err}
			}
			if _, dup := m.Get(flags); dup {
				return nil, malformed("", "", "state %s defined more than once", flags)
			}
			if d.States[key] == "" {
				return nil, malformed("", "", "state %s has no image", flags)
			}
			m.set(flags, d.States[key])
		}
		if _, ok := m.Get(StateNormal); !ok {
			return nil, malformed("", "", "states has no Normal entry")
		}
		return m, nil
	}

	pos, err := pair(d.Position, "position", scale)
	if err != nil {
		return nil, err
	}
	tint := ColorWhite
	if d.Color != "" {
		c, cerr := ParseColor(d.Color)
		if cerr != nil {
			return nil, &LoadError{Kind: MalformedDocument, Err: cerr}
		}
		tint = c
	}

	switch kind {
	case "size":
		size, err := pair(d.Size, "size", scale)
		if err != nil {
			return nil, err
		}
		if size.X <= 0 || size.Y <= 0 {
			return nil, malformed("", "", "size must be positive, got %v", size)
		}
		fill := FillNone
		if d.Fill != "" {
			f, ferr := ParseFillMode(d.Fill)
			if ferr != nil {
				return nil, &LoadError{Kind: MalformedDocument, Err: ferr}
			}
			fill = f
		}
		return &Simple{Position: pos, Size: size, Fill: fill, Color: tint}, nil
	case "grid_size":
		cell, err := gridCell(d.GridSize, "grid_size", scale)
		if err != nil {
			return nil, err
		}
		return &Grid{Position: pos, Cell: cell, Color: tint}, nil
	case "grid_size_horiz":
		cell, err := gridCell(d.GridSizeHoriz, "grid_size_horiz", scale)
		if err != nil {
			return nil, err
		}
		return &GridHorizontal{Position: pos, Cell: cell, Color: tint}, nil
	default:
		cell, err := gridCell(d.GridSizeVert, "grid_size_vert", scale)
		if err != nil {
			return nil, err
		}
		return &GridVertical{Position: pos, Cell: cell, Color: tint}, nil
	}
}

func pair(v []int, field string, scale float64) (image.Point, *LoadError) {
	if v == nil {
		return image.Point{}, malformed("", "", "%s is required", field)
	}
	if len(v) != 2 {
		return image.Point{}, malformed("", "", "%s must have exactly 2 elements, got %d", field, len(v))
	}
	return image.Pt(scalePixels(v[0], scale), scalePixels(v[1], scale)), nil
}

func gridCell(v []int, field string, scale float64) (image.Point, *LoadError) {
	cell, err := pair(v, field, scale)
	if err != nil {
		return cell, err
	}
	if cell.X <= 0 || cell.Y <= 0 {
		return cell, &LoadError{Kind: InvalidGrid, Detail: fmt.Sprintf("%s must be positive after scaling, got %v", field, cell)}
	}
	return cell, nil
}

// checkCycles runs a depth-first walk over references with a visiting set;
// meeting a name already on the active path is a cycle.
func checkCycles(set *ImageSet) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(set.images))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			path := append(append([]string(nil), stack[start:]...), name)
			return &LoadError{Kind: CyclicReference, Set: set.Name, Name: name, Path: path}
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, ref := range references(set.images[name]) {
			if ref == Empty {
				continue
			}
			if err := visit(ref); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range set.names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

func checkDefinition(set *ImageSet, name string, opts LoadOptions) error {
	switch d := set.images[name].(type) {
	case *Animated:
		for _, frame := range d.Frames {
			target, ok := chaseAliases(set, frame)
			if !ok {
				continue
			}
			if !target.Kind().IsLeaf() {
				return &LoadError{Kind: InvalidFrame, Set: set.Name, Name: name, Ref: frame,
					Detail: fmt.Sprintf("resolves to %s, frames must resolve to simple or grid images", target.Kind())}
			}
		}
	case *Grid, *GridHorizontal, *GridVertical:
		if opts.SourceBounds == nil {
			return nil
		}
		size, known := opts.SourceBounds(set.Source)
		if !known {
			return nil
		}
		r, _ := leafBounds(d)
		if !r.In(image.Rectangle{Max: size}) {
			return &LoadError{Kind: InvalidGrid, Set: set.Name, Name: name,
				Detail: fmt.Sprintf("cells span %v, outside source %q of size %v", r, set.Source, size)}
		}
	}
	return nil
}

// chaseAliases follows alias links from name. It reports false when the
// chain ends at Empty.
func chaseAliases(set *ImageSet, name string) (Definition, bool) {
	for hops := 0; hops <= len(set.images); hops++ {
		if name == Empty {
			return nil, false
		}
		def := set.images[name]
		alias, ok := def.(*Alias)
		if !ok {
			return def, true
		}
		name = alias.Target
	}
	panic(fmt.Sprintf("skin: alias chain from %q in set %q does not terminate", name, set.Name))
}

func logUnreachableStates(set *ImageSet) {
	for _, name := range set.names {
		m, ok := set.images[name].(*StateMap)
		if !ok {
			continue
		}
		for _, k := range m.Keys() {
			if !isReachableState(k) {
				Logger().Warn("skin: state key can never be selected",
					slog.String("set", set.Name),
					slog.String("image", name),
					slog.String("state", k.String()))
			}
		}
	}
}
