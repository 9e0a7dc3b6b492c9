package skin

import (
	"fmt"
	"strings"
)

// StateFlags is the set of interaction flags active on a widget. The zero
// value is the Normal state.
type StateFlags uint8

const (
	StateHover StateFlags = 1 << iota
	StatePressed
	StateDisabled
	StateActive

	StateNormal StateFlags = 0
)

const (
	stateFlagCount  = 4
	stateComboCount = 1 << stateFlagCount
)

var stateFlagNames = [stateFlagCount]string{"Hover", "Pressed", "Disabled", "Active"}

// Has reports whether every flag in f is set in s.
func (s StateFlags) Has(f StateFlags) bool {
	return s&f == f
}

// String renders s in the document key form, e.g. "Active + Hover".
func (s StateFlags) String() string {
	if s == StateNormal {
		return "Normal"
	}
	parts := make([]string, 0, stateFlagCount)
	// Active first reads the way themes are written ("Active + Pressed").
	if s&StateActive != 0 {
		parts = append(parts, "Active")
	}
	for i := 0; i < stateFlagCount; i++ {
		f := StateFlags(1 << i)
		if f == StateActive || s&f == 0 {
			continue
		}
		parts = append(parts, stateFlagNames[i])
	}
	return strings.Join(parts, " + ")
}

// ParseStateKey parses a states key of the form "<Flag>( + <Flag>)*".
// Whitespace around flags is ignored, Normal may only appear alone, and a
// flag may not repeat.
func ParseStateKey(key string) (StateFlags, error) {
	parts := strings.Split(key, "+")
	if len(parts) > stateFlagCount {
		return 0, fmt.Errorf("state key %q: at most %d flags are allowed", key, stateFlagCount)
	}
	var flags StateFlags
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "Normal" {
			if len(parts) != 1 {
				return 0, fmt.Errorf("state key %q: Normal may only be specified alone", key)
			}
			return StateNormal, nil
		}
		f, ok := lookupStateFlag(part)
		if !ok {
			return 0, fmt.Errorf("state key %q: unknown flag %q", key, part)
		}
		if flags&f != 0 {
			return 0, fmt.Errorf("state key %q: duplicate flag %s", key, part)
		}
		flags |= f
	}
	return flags, nil
}

func lookupStateFlag(name string) (StateFlags, bool) {
	for i, n := range stateFlagNames {
		if n == name {
			return StateFlags(1 << i), true
		}
	}
	return 0, false
}

// reachableStates lists the keys the resolver ever consults. Any other key in
// a state map is legal but can never be selected.
var reachableStates = [...]StateFlags{
	StateNormal,
	StateHover,
	StatePressed,
	StateDisabled,
	StateActive,
	StateActive | StateHover,
	StateActive | StatePressed,
}

func isReachableState(k StateFlags) bool {
	for _, r := range reachableStates {
		if r == k {
			return true
		}
	}
	return false
}

// StateMap selects an image name by widget interaction state. Keys are
// parsed into flag sets at load time so resolution is bitset work only.
type StateMap struct {
	names   [stateComboCount]string
	defined uint16
}

// NewStateMap builds a state map from already-parsed keys.
func NewStateMap(states map[StateFlags]string) *StateMap {
	m := &StateMap{}
	for k, v := range states {
		m.set(k, v)
	}
	return m
}

func (*StateMap) Kind() Kind { return KindStateMap }
func (*StateMap) sealed()    {}

func (m *StateMap) set(key StateFlags, name string) {
	m.names[key] = name
	m.defined |= 1 << key
}

// Get returns the name stored under exactly key.
func (m *StateMap) Get(key StateFlags) (string, bool) {
	if key >= stateComboCount || m.defined&(1<<key) == 0 {
		return "", false
	}
	return m.names[key], true
}

// Keys returns the defined keys in ascending bit order.
func (m *StateMap) Keys() []StateFlags {
	keys := make([]StateFlags, 0, stateComboCount)
	for k := StateFlags(0); k < stateComboCount; k++ {
		if m.defined&(1<<k) != 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// Resolve selects the image name for the given flags. Precedence, highest
// first: Disabled, Active+Pressed, Active+Hover, Active, then (only while
// Active is unset) Pressed and Hover, and finally Normal. A key missing from
// the map falls through to the next applicable rule.
//
// Resolve panics if the map has no Normal entry; loaded maps always do.
func (m *StateMap) Resolve(flags StateFlags) string {
	if flags&StateDisabled != 0 {
		if name, ok := m.Get(StateDisabled); ok {
			return name
		}
	}
	if flags&StateActive != 0 {
		if flags&StatePressed != 0 {
			if name, ok := m.Get(StateActive | StatePressed); ok {
				return name
			}
		}
		if flags&StateHover != 0 {
			if name, ok := m.Get(StateActive | StateHover); ok {
				return name
			}
		}
		if name, ok := m.Get(StateActive); ok {
			return name
		}
	} else {
		if flags&StatePressed != 0 {
			if name, ok := m.Get(StatePressed); ok {
				return name
			}
		}
		if flags&StateHover != 0 {
			if name, ok := m.Get(StateHover); ok {
				return name
			}
		}
	}
	name, ok := m.Get(StateNormal)
	if !ok {
		panic("skin: state map has no Normal entry")
	}
	return name
}
