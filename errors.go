package skin

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Sentinel errors. Every *LoadError and *PackError matches exactly one of
// these through errors.Is.
var (
	ErrMalformedDocument = errors.New("skin: malformed document")
	ErrUnknownReference  = errors.New("skin: unknown reference")
	ErrDuplicateName     = errors.New("skin: duplicate name")
	ErrCyclicReference   = errors.New("skin: cyclic reference")
	ErrInvalidGrid       = errors.New("skin: invalid grid")
	ErrInvalidFrame      = errors.New("skin: invalid animation frame")

	ErrRegionTooLarge    = errors.New("skin: region too large for atlas page")
	ErrUnknownSource     = errors.New("skin: unknown source image")
	ErrRegionOutOfBounds = errors.New("skin: region outside source image")
	ErrAtlasFull         = errors.New("skin: atlas page limit reached")

	// ErrSuperseded is returned by Store.Reload when the new generation was
	// discarded before commit.
	ErrSuperseded = errors.New("skin: reload superseded")
)

// LoadErrorKind classifies a failed theme load.
type LoadErrorKind uint8

const (
	MalformedDocument LoadErrorKind = iota
	UnknownReference
	DuplicateName
	CyclicReference
	InvalidGrid
	InvalidFrame
)

var loadErrorSentinels = [...]error{
	MalformedDocument: ErrMalformedDocument,
	UnknownReference:  ErrUnknownReference,
	DuplicateName:     ErrDuplicateName,
	CyclicReference:   ErrCyclicReference,
	InvalidGrid:       ErrInvalidGrid,
	InvalidFrame:      ErrInvalidFrame,
}

func (k LoadErrorKind) String() string {
	if int(k) < len(loadErrorSentinels) {
		return strings.TrimPrefix(loadErrorSentinels[k].Error(), "skin: ")
	}
	return fmt.Sprintf("LoadErrorKind(%d)", uint8(k))
}

// LoadError reports why a theme document could not be turned into a Theme.
// Set and Name locate the offending entry when known.
type LoadError struct {
	Kind   LoadErrorKind
	Set    string
	Name   string
	Ref    string   // referenced name for UnknownReference and InvalidFrame
	Path   []string // full cycle for CyclicReference, first name repeated last
	Detail string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("skin: ")
	if e.Set != "" {
		fmt.Fprintf(&b, "image set %q: ", e.Set)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, "image %q: ", e.Name)
	}
	b.WriteString(e.Kind.String())
	switch {
	case len(e.Path) > 0:
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Path, " -> "))
	case e.Ref != "":
		fmt.Fprintf(&b, " %q", e.Ref)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *LoadError) Is(target error) bool {
	return int(e.Kind) < len(loadErrorSentinels) && target == loadErrorSentinels[e.Kind]
}

func malformed(set, name, format string, args ...any) *LoadError {
	return &LoadError{Kind: MalformedDocument, Set: set, Name: name, Detail: fmt.Sprintf(format, args...)}
}

// PackErrorKind classifies a failed atlas pack.
type PackErrorKind uint8

const (
	RegionTooLarge PackErrorKind = iota
	UnknownSource
	RegionOutOfBounds
	AtlasFull
)

var packErrorSentinels = [...]error{
	RegionTooLarge:    ErrRegionTooLarge,
	UnknownSource:     ErrUnknownSource,
	RegionOutOfBounds: ErrRegionOutOfBounds,
	AtlasFull:         ErrAtlasFull,
}

// PackError reports why an atlas could not be built.
type PackError struct {
	Kind   PackErrorKind
	Source string
	Rect   image.Rectangle
	Err    error
}

func (e *PackError) Error() string {
	msg := packErrorSentinels[e.Kind].Error()
	if e.Source != "" {
		msg += fmt.Sprintf(": source %q", e.Source)
	}
	if !e.Rect.Empty() {
		msg += fmt.Sprintf(" region %v", e.Rect)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PackError) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *PackError) Is(target error) bool {
	return int(e.Kind) < len(packErrorSentinels) && target == packErrorSentinels[e.Kind]
}

// ConfigError represents a PackConfig validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "skin: invalid pack config." + e.Field + ": " + e.Reason
}
