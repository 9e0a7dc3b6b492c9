package skin

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Generation is one immutable (Theme, Atlas) pair produced by a single
// load and pack. Readers hold a *Generation for the duration of a frame.
type Generation struct {
	Seq   uint64
	Theme *Theme
	Atlas *Atlas
}

// Build loads docs and packs every region they reference into a new
// generation with sequence number 0. It does not touch any Store.
func Build(docs []*Document, sources SourceProvider, cfg PackConfig) (*Generation, error) {
	opts := LoadOptions{}
	if b, ok := sources.(interface {
		Bounds(string) (image.Point, bool)
	}); ok {
		opts.SourceBounds = b.Bounds
	}
	theme, err := LoadWithOptions(opts, docs...)
	if err != nil {
		return nil, err
	}
	atlas, err := Pack(sources, theme.Regions(), cfg)
	if err != nil {
		return nil, err
	}
	return &Generation{Theme: theme, Atlas: atlas}, nil
}

// Draw resolves a fully-qualified "set/image" id and returns its primitives.
// Unknown ids draw nothing.
func (g *Generation) Draw(id string, flags StateFlags, dst Rect, elapsed time.Duration) []DrawPrimitive {
	set, _, ok := g.Theme.Lookup(id)
	if !ok {
		Logger().Debug("skin: image id not found", slog.String("id", id))
		return nil
	}
	return set.Draw(id[len(set.Name)+1:], flags, dst, elapsed)
}

// Store holds the current generation behind a single swappable pointer.
// Current never blocks; Reload and Swap replace the whole generation at
// once, so a reader sees either the old pair or the new one.
type Store struct {
	mu      sync.Mutex // serializes commits
	started atomic.Uint64
	current atomic.Pointer[Generation]
}

// NewStore returns a store serving gen, which may be nil.
func NewStore(gen *Generation) *Store {
	s := &Store{}
	if gen != nil {
		s.started.Store(gen.Seq)
		s.current.Store(gen)
	}
	return s
}

// Current returns the active generation, or nil before the first commit.
func (s *Store) Current() *Generation {
	return s.current.Load()
}

// Swap installs gen as the active generation, superseding any reload still
// in flight, and returns the previous one.
func (s *Store) Swap(gen *Generation) *Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := *gen
	g.Seq = s.started.Add(1)
	return s.current.Swap(&g)
}

// Reload builds a new generation and commits it unless ctx was cancelled or
// a Reload or Swap started after it has already committed; in those cases
// the new generation is discarded and an error wrapping ErrSuperseded is
// returned. A failed load or pack leaves the current generation active and
// supersedes nothing, so an older reload still in flight may commit.
func (s *Store) Reload(ctx context.Context, docs []*Document, sources SourceProvider, cfg PackConfig) (*Generation, error) {
	ticket := s.started.Add(1)

	gen, err := Build(docs, sources, cfg)
	if err != nil {
		Logger().Info("skin: reload failed, keeping current generation", slog.Uint64("seq", ticket), slog.Any("error", err))
		return nil, err
	}
	gen.Seq = ticket

	if err := ctx.Err(); err != nil {
		Logger().Info("skin: reload cancelled before commit", slog.Uint64("seq", ticket))
		return nil, fmt.Errorf("%w: %w", ErrSuperseded, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.current.Load(); cur != nil && cur.Seq > ticket {
		Logger().Info("skin: reload superseded", slog.Uint64("seq", ticket), slog.Uint64("latest", cur.Seq))
		return nil, fmt.Errorf("%w: reload %d overtaken by %d", ErrSuperseded, ticket, cur.Seq)
	}
	s.current.Store(gen)
	Logger().Info("skin: generation committed",
		slog.Uint64("seq", ticket),
		slog.Int("sets", len(gen.Theme.names)),
		slog.Int("pages", len(gen.Atlas.Pages)))
	return gen, nil
}
