package skin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"gopkg.in/yaml.v3"
)

// Document is the parsed form of a theme file. Only image_sets is consumed
// here; fonts and widgets are kept verbatim for the layout layer.
type Document struct {
	ImageSets map[string]SetDocument `toml:"image_sets" json:"image_sets" yaml:"image_sets"`
	Fonts     map[string]any         `toml:"fonts,omitempty" json:"fonts,omitempty" yaml:"fonts,omitempty"`
	Widgets   map[string]any         `toml:"widgets,omitempty" json:"widgets,omitempty" yaml:"widgets,omitempty"`
}

// SetDocument is one entry of image_sets.
type SetDocument struct {
	Source string                   `toml:"source" json:"source" yaml:"source"`
	Scale  *float64                 `toml:"scale,omitempty" json:"scale,omitempty" yaml:"scale,omitempty"`
	Images map[string]ImageDocument `toml:"images" json:"images" yaml:"images"`
}

// ImageDocument is one raw image entry. Which fields are present decides
// the definition variant: size (Simple), grid_size (Grid), grid_size_horiz,
// grid_size_vert, frames (Animated), states (StateMap) or from (Alias).
type ImageDocument struct {
	Position        []int             `toml:"position,omitempty" json:"position,omitempty" yaml:"position,omitempty"`
	Size            []int             `toml:"size,omitempty" json:"size,omitempty" yaml:"size,omitempty"`
	GridSize        []int             `toml:"grid_size,omitempty" json:"grid_size,omitempty" yaml:"grid_size,omitempty"`
	GridSizeHoriz   []int             `toml:"grid_size_horiz,omitempty" json:"grid_size_horiz,omitempty" yaml:"grid_size_horiz,omitempty"`
	GridSizeVert    []int             `toml:"grid_size_vert,omitempty" json:"grid_size_vert,omitempty" yaml:"grid_size_vert,omitempty"`
	Fill            string            `toml:"fill,omitempty" json:"fill,omitempty" yaml:"fill,omitempty"`
	Color           string            `toml:"color,omitempty" json:"color,omitempty" yaml:"color,omitempty"`
	States          map[string]string `toml:"states,omitempty" json:"states,omitempty" yaml:"states,omitempty"`
	FrameTimeMillis *int              `toml:"frame_time_millis,omitempty" json:"frame_time_millis,omitempty" yaml:"frame_time_millis,omitempty"`
	Frames          []string          `toml:"frames,omitempty" json:"frames,omitempty" yaml:"frames,omitempty"`
	Once            *bool             `toml:"once,omitempty" json:"once,omitempty" yaml:"once,omitempty"`
	From            *string           `toml:"from,omitempty" json:"from,omitempty" yaml:"from,omitempty"`
}

// Format is the concrete syntax of a theme document.
type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// FormatForPath picks the document format from a file extension.
func FormatForPath(p string) (Format, bool) {
	switch strings.ToLower(path.Ext(p)) {
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	}
	return 0, false
}

// DecodeDocument parses data in the given format. Unknown keys are
// rejected. An image name defined twice within one set is a *LoadError of
// kind DuplicateName; any other failure is MalformedDocument.
func DecodeDocument(data []byte, format Format) (*Document, error) {
	if set, name, ok := duplicateImage(data, format); ok {
		return nil, &LoadError{Kind: DuplicateName, Set: set, Name: name,
			Detail: "defined more than once in one " + format.String() + " document"}
	}

	var doc Document
	var err error
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		err = fmt.Errorf("unsupported format %v", format)
	}
	if err != nil {
		return nil, &LoadError{Kind: MalformedDocument, Detail: "decode " + format.String(), Err: err}
	}
	return &doc, nil
}

// ReadDocument reads and decodes the theme file at p, choosing the format
// from its extension.
func ReadDocument(fsys fs.FS, p string) (*Document, error) {
	format, ok := FormatForPath(p)
	if !ok {
		return nil, &LoadError{Kind: MalformedDocument, Detail: fmt.Sprintf("%s: unrecognized document extension", p)}
	}
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("skin: read document: %w", err)
	}
	doc, err := DecodeDocument(data, format)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Detail = p + ": " + le.Detail
		}
		return nil, err
	}
	return doc, nil
}

// duplicateImage finds the first image name that data defines twice within
// one set. Syntax errors are left to the decoder.
func duplicateImage(data []byte, format Format) (set, name string, found bool) {
	switch format {
	case FormatTOML:
		return tomlDuplicateImage(data)
	case FormatYAML:
		return yamlDuplicateImage(data)
	case FormatJSON:
		return jsonDuplicateImage(data)
	}
	return "", "", false
}

// imagePath reports whether key is image_sets.<set>.images.<name>.
func imagePath(key []string) (set, name string, ok bool) {
	if len(key) != 4 || key[0] != "image_sets" || key[2] != "images" {
		return "", "", false
	}
	return key[1], key[3], true
}

type imageKey struct{ set, name string }

func tomlDuplicateImage(data []byte) (string, string, bool) {
	var p unstable.Parser
	p.Reset(data)
	seen := make(map[imageKey]bool)
	var table []string
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table, unstable.ArrayTable:
			table = tomlKey(e.Key())
			if set, name, ok := imagePath(table); ok {
				if seen[imageKey{set, name}] {
					return set, name, true
				}
				seen[imageKey{set, name}] = true
			}
		case unstable.KeyValue:
			if set, name, ok := tomlVisitKeyValue(table, e, seen); ok {
				return set, name, true
			}
		}
	}
	return "", "", false
}

// tomlVisitKeyValue records the image entries defined by kv under prefix,
// descending into inline tables that can still hold image entries.
func tomlVisitKeyValue(prefix []string, kv *unstable.Node, seen map[imageKey]bool) (string, string, bool) {
	key := append(append([]string(nil), prefix...), tomlKey(kv.Key())...)
	if set, name, ok := imagePath(key); ok {
		if seen[imageKey{set, name}] {
			return set, name, true
		}
		seen[imageKey{set, name}] = true
		return "", "", false
	}
	if v := kv.Value(); len(key) < 4 && v.Kind == unstable.InlineTable {
		it := v.Children()
		for it.Next() {
			if set, name, ok := tomlVisitKeyValue(key, it.Node(), seen); ok {
				return set, name, true
			}
		}
	}
	return "", "", false
}

func tomlKey(it unstable.Iterator) []string {
	var key []string
	for it.Next() {
		key = append(key, string(it.Node().Data))
	}
	return key
}

func yamlDuplicateImage(data []byte) (string, string, bool) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil || len(root.Content) == 0 {
		return "", "", false
	}
	sets := yamlValue(root.Content[0], "image_sets")
	if sets == nil || sets.Kind != yaml.MappingNode {
		return "", "", false
	}
	for i := 0; i+1 < len(sets.Content); i += 2 {
		images := yamlValue(sets.Content[i+1], "images")
		if images == nil || images.Kind != yaml.MappingNode {
			continue
		}
		seen := make(map[string]bool)
		for j := 0; j+1 < len(images.Content); j += 2 {
			name := images.Content[j].Value
			if seen[name] {
				return sets.Content[i].Value, name, true
			}
			seen[name] = true
		}
	}
	return "", "", false
}

// yamlValue returns the value stored under key in mapping node n.
func yamlValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func jsonDuplicateImage(data []byte) (string, string, bool) {
	var doc struct {
		ImageSets map[string]struct {
			Images json.RawMessage `json:"images"`
		} `json:"image_sets"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", "", false
	}
	for _, set := range sortedKeys(doc.ImageSets) {
		if name, ok := jsonDuplicateKey(doc.ImageSets[set].Images); ok {
			return set, name, true
		}
	}
	return "", "", false
}

// jsonDuplicateKey returns the first key repeated in the JSON object raw.
func jsonDuplicateKey(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", false
	}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		key, _ := tok.(string)
		if seen[key] {
			return key, true
		}
		seen[key] = true
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", false
		}
	}
	return "", false
}

// ParseColor parses a tint: "#rgb", "#rrggbb", "#rrggbbaa" or one of the
// names white, black, red, green, blue, cyan, yellow, magenta.
func ParseColor(s string) (Color, error) {
	if !strings.HasPrefix(s, "#") {
		c, ok := namedColors[s]
		if !ok {
			return Color{}, fmt.Errorf("unable to parse color from %q, hex codes must start with #", s)
		}
		return c, nil
	}
	hex := s[1:]
	var digits []uint64
	switch len(hex) {
	case 3:
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("%q is not a valid hex color", s)
			}
			digits = append(digits, v*17)
		}
		digits = append(digits, 255)
	case 6, 8:
		for i := 0; i < len(hex); i += 2 {
			v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("%q is not a valid hex color", s)
			}
			digits = append(digits, v)
		}
		if len(digits) == 3 {
			digits = append(digits, 255)
		}
	default:
		return Color{}, fmt.Errorf("%q is not a valid 3, 6 or 8 digit hex color", s)
	}
	return Color{
		R: float64(digits[0]) / 255,
		G: float64(digits[1]) / 255,
		B: float64(digits[2]) / 255,
		A: float64(digits[3]) / 255,
	}, nil
}

var namedColors = map[string]Color{
	"white":   {1, 1, 1, 1},
	"black":   {0, 0, 0, 1},
	"red":     {1, 0, 0, 1},
	"green":   {0, 1, 0, 1},
	"blue":    {0, 0, 1, 1},
	"cyan":    {0, 1, 1, 1},
	"yellow":  {1, 1, 0, 1},
	"magenta": {1, 0, 1, 1},
}
