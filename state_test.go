package skin

import "testing"

func TestParseStateKey(t *testing.T) {
	tests := []struct {
		key     string
		want    StateFlags
		wantErr bool
	}{
		{"Normal", StateNormal, false},
		{"Hover", StateHover, false},
		{"Pressed", StatePressed, false},
		{"Disabled", StateDisabled, false},
		{"Active", StateActive, false},
		{"Active + Hover", StateActive | StateHover, false},
		{"Active+Pressed", StateActive | StatePressed, false},
		{"  Pressed +  Active ", StateActive | StatePressed, false},
		{"Hover + Pressed + Disabled + Active", StateHover | StatePressed | StateDisabled | StateActive, false},
		{"Normal + Hover", 0, true},
		{"Hover + Hover", 0, true},
		{"hover", 0, true},
		{"Focused", 0, true},
		{"", 0, true},
		{"Hover + ", 0, true},
		{"Hover + Pressed + Disabled + Active + Hover", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStateKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStateKey(%q) err = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseStateKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestStateFlagsStringRoundTrips(t *testing.T) {
	for f := StateFlags(0); f < stateComboCount; f++ {
		got, err := ParseStateKey(f.String())
		if err != nil {
			t.Errorf("ParseStateKey(%q): %v", f.String(), err)
			continue
		}
		if got != f {
			t.Errorf("ParseStateKey(%q) = %v, want %v", f.String(), got, f)
		}
	}
	if s := (StateActive | StateHover).String(); s != "Active + Hover" {
		t.Errorf("String() = %q, want %q", s, "Active + Hover")
	}
}

func fullStateMap() *StateMap {
	return NewStateMap(map[StateFlags]string{
		StateNormal:                "normal",
		StateHover:                 "hover",
		StatePressed:               "pressed",
		StateDisabled:              "disabled",
		StateActive:                "active",
		StateActive | StateHover:   "active_hover",
		StateActive | StatePressed: "active_pressed",
	})
}

func TestStateMapResolvePrecedence(t *testing.T) {
	m := fullStateMap()
	tests := []struct {
		flags StateFlags
		want  string
	}{
		{StateNormal, "normal"},
		{StateHover, "hover"},
		{StatePressed, "pressed"},
		{StateHover | StatePressed, "pressed"},
		{StateDisabled, "disabled"},
		{StateDisabled | StateActive | StatePressed, "disabled"},
		{StateDisabled | StateHover, "disabled"},
		{StateActive, "active"},
		{StateActive | StateHover, "active_hover"},
		{StateActive | StatePressed, "active_pressed"},
		{StateActive | StatePressed | StateHover, "active_pressed"},
	}
	for _, tt := range tests {
		if got := m.Resolve(tt.flags); got != tt.want {
			t.Errorf("Resolve(%v) = %q, want %q", tt.flags, got, tt.want)
		}
	}
}

func TestStateMapResolveFallsThrough(t *testing.T) {
	m := NewStateMap(map[StateFlags]string{
		StateNormal: "a",
		StateHover:  "b",
	})
	tests := []struct {
		flags StateFlags
		want  string
	}{
		{StatePressed, "a"},
		{StateHover | StatePressed, "b"},
		{StateDisabled, "a"},
		{StateDisabled | StateHover, "b"},
		{StateActive, "a"},
	}
	for _, tt := range tests {
		if got := m.Resolve(tt.flags); got != tt.want {
			t.Errorf("Resolve(%v) = %q, want %q", tt.flags, got, tt.want)
		}
	}
}

// An active widget must not pick up the inactive Hover image, even when
// only Active+Hover would otherwise match.
func TestStateMapActiveIgnoresInactiveRules(t *testing.T) {
	m := NewStateMap(map[StateFlags]string{
		StateNormal:              "A",
		StateHover:               "B",
		StateActive | StateHover: "C",
	})
	if got := m.Resolve(StateActive); got != "A" {
		t.Errorf("Resolve(Active) = %q, want A", got)
	}
	if got := m.Resolve(StateActive | StateHover); got != "C" {
		t.Errorf("Resolve(Active + Hover) = %q, want C", got)
	}
	if got := m.Resolve(StateActive | StatePressed); got != "A" {
		t.Errorf("Resolve(Active + Pressed) = %q, want A", got)
	}
	if got := m.Resolve(StateHover); got != "B" {
		t.Errorf("Resolve(Hover) = %q, want B", got)
	}
}

func TestStateMapResolveWithoutNormalPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for state map without Normal")
		}
	}()
	NewStateMap(map[StateFlags]string{StateHover: "h"}).Resolve(StateNormal)
}

func TestStateMapKeys(t *testing.T) {
	m := fullStateMap()
	keys := m.Keys()
	if len(keys) != 7 {
		t.Fatalf("len(Keys()) = %d, want 7", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] <= keys[i-1] {
			t.Errorf("Keys() not ascending: %v", keys)
		}
	}
	if _, ok := m.Get(StateHover | StatePressed); ok {
		t.Error("Get(Hover + Pressed) should report undefined")
	}
	if name, ok := m.Get(StateActive | StateHover); !ok || name != "active_hover" {
		t.Errorf("Get(Active + Hover) = %q, %v", name, ok)
	}
}

func TestIsReachableState(t *testing.T) {
	if !isReachableState(StateActive | StatePressed) {
		t.Error("Active + Pressed should be reachable")
	}
	if isReachableState(StateHover | StatePressed) {
		t.Error("Hover + Pressed is never consulted")
	}
	if isReachableState(StateDisabled | StateHover) {
		t.Error("Disabled + Hover is never consulted")
	}
}
