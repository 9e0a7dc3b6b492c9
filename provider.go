package skin

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"sort"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SourceProvider supplies decoded source textures by the id used in an image
// set's source field.
type SourceProvider interface {
	Source(id string) (image.Image, error)
}

// SourceMap is an in-memory SourceProvider.
type SourceMap map[string]image.Image

// Source returns the image registered under id.
func (m SourceMap) Source(id string) (image.Image, error) {
	img, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("skin: no source image %q", id)
	}
	return img, nil
}

// Bounds reports the size of a registered source. It fits
// LoadOptions.SourceBounds.
func (m SourceMap) Bounds(id string) (image.Point, bool) {
	img, ok := m[id]
	if !ok {
		return image.Point{}, false
	}
	return img.Bounds().Size(), true
}

// DefaultSourceExtensions are tried in order by FSProvider.
var DefaultSourceExtensions = []string{".png", ".webp", ".bmp", ".gif", ".jpg", ".jpeg"}

// FSProvider decodes source textures named "<id><ext>" from a file system.
// Decoded images are cached, so one provider serves many reloads of an
// unchanged directory; call Forget to drop stale entries.
type FSProvider struct {
	FS         fs.FS
	Extensions []string // defaults to DefaultSourceExtensions

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewFSProvider returns a provider reading from fsys.
func NewFSProvider(fsys fs.FS) *FSProvider {
	return &FSProvider{FS: fsys}
}

// Source decodes (or returns the cached) image for id.
func (p *FSProvider) Source(id string) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if img, ok := p.cache[id]; ok {
		return img, nil
	}

	exts := p.Extensions
	if len(exts) == 0 {
		exts = DefaultSourceExtensions
	}
	for _, ext := range exts {
		data, err := fs.ReadFile(p.FS, id+ext)
		if err != nil {
			continue
		}
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("skin: decode source %q: %w", id+ext, err)
		}
		if p.cache == nil {
			p.cache = make(map[string]image.Image)
		}
		p.cache[id] = img
		Logger().Debug("skin: source decoded", "id", id, "format", format, "bounds", img.Bounds().String())
		return img, nil
	}
	return nil, fmt.Errorf("skin: no source image %q (tried %v)", id, exts)
}

// Bounds decodes id and reports its size. It fits LoadOptions.SourceBounds.
func (p *FSProvider) Bounds(id string) (image.Point, bool) {
	img, err := p.Source(id)
	if err != nil {
		return image.Point{}, false
	}
	return img.Bounds().Size(), true
}

// Forget drops cached images. With no ids every entry is dropped.
func (p *FSProvider) Forget(ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(ids) == 0 {
		p.cache = nil
		return
	}
	for _, id := range ids {
		delete(p.cache, id)
	}
}

// Cached returns the ids currently cached, sorted.
func (p *FSProvider) Cached() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.cache))
	for id := range p.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
