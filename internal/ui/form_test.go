package ui

import (
	"reflect"
	"testing"

	"github.com/five82/swarmtail/internal/logstream"
	"github.com/five82/swarmtail/internal/swarm"
)

func TestFormState_FieldsDependOnSinceMode(t *testing.T) {
	f := newFormState(logstream.DefaultForm())

	relative := f.fields()
	if len(relative) != 10 || relative[4] != fieldSinceUnit {
		t.Fatalf("relative fields = %v, want unit after amount", relative)
	}

	f.toggleSinceMode()
	absolute := f.fields()
	for _, fl := range absolute {
		if fl == fieldSinceUnit {
			t.Fatalf("absolute fields = %v, want no unit field", absolute)
		}
	}
}

func TestFormState_MoveWrapsAndFocusesInputs(t *testing.T) {
	f := newFormState(logstream.DefaultForm())

	f.move(1)
	if f.focus != fieldTail || !f.tail.Focused() {
		t.Fatalf("focus = %v tail focused = %v, want tail input focused", f.focus, f.tail.Focused())
	}
	f.move(-2)
	if f.focus != fieldDetails {
		t.Fatalf("focus = %v, want wrap to details", f.focus)
	}
	if f.tail.Focused() {
		t.Fatalf("tail input still focused after moving away")
	}
}

func TestFormState_ToggleModeMovesOffUnit(t *testing.T) {
	f := newFormState(logstream.DefaultForm())
	f.focus = fieldSinceUnit

	f.toggleSinceMode()

	if f.focus != fieldSinceValue || !f.iso.Focused() {
		t.Fatalf("focus = %v iso focused = %v, want timestamp input", f.focus, f.iso.Focused())
	}
}

func TestFormState_PresetFillsAmountAndUnit(t *testing.T) {
	f := newFormState(logstream.DefaultForm())
	f.toggleSinceMode()

	f.applyPreset("24h")

	v := f.value()
	if v.Since.Mode != logstream.SinceRelative || v.Since.Value() != "24h" {
		t.Fatalf("since = %#v, want relative 24h", v.Since)
	}
	if f.amount.Value() != "24" {
		t.Fatalf("amount input = %q, want 24", f.amount.Value())
	}
}

func TestFormState_Toggles(t *testing.T) {
	f := newFormState(logstream.DefaultForm())
	tests := []struct {
		field field
		get   func(logstream.FormState) bool
		want  bool
	}{
		{fieldFollow, func(v logstream.FormState) bool { return v.Follow }, true},
		{fieldTimestamps, func(v logstream.FormState) bool { return v.Timestamps }, true},
		{fieldStdout, func(v logstream.FormState) bool { return v.Stdout }, false},
		{fieldStderr, func(v logstream.FormState) bool { return v.Stderr }, false},
		{fieldDetails, func(v logstream.FormState) bool { return v.Details }, true},
	}
	for _, tt := range tests {
		f.focus = tt.field
		f.toggle(nil)
		if got := tt.get(f.value()); got != tt.want {
			t.Errorf("%s after toggle = %v, want %v", fieldLabels[tt.field], got, tt.want)
		}
	}
}

func TestFormState_UnitCycles(t *testing.T) {
	f := newFormState(logstream.DefaultForm())
	f.focus = fieldSinceUnit

	var seen []string
	for i := 0; i < 4; i++ {
		f.toggle(nil)
		seen = append(seen, f.values.Since.Unit)
	}
	if want := []string{"d", "s", "m", "h"}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("units = %v, want %v", seen, want)
	}
}

func TestFormState_CycleService(t *testing.T) {
	services := []swarm.Service{{ID: "a", Name: "api"}, {ID: "b", Name: "batch"}, {ID: "w", Name: "web"}}
	f := newFormState(logstream.DefaultForm())

	f.cycleService(services, -1)
	if f.values.Source.ID != "w" {
		t.Fatalf("first previous = %q, want last service", f.values.Source.ID)
	}
	f.cycleService(services, 1)
	if f.values.Source.ID != "a" {
		t.Fatalf("next after last = %q, want wrap to first", f.values.Source.ID)
	}
	f.cycleService(nil, 1)
	if f.values.Source.ID != "a" {
		t.Fatalf("empty catalog changed selection to %q", f.values.Source.ID)
	}
}

func TestFormState_ResolveSource(t *testing.T) {
	services := []swarm.Service{{ID: "a", Name: "api"}, {ID: "b", Name: "batch"}}

	f := newFormState(logstream.DefaultForm())
	f.resolveSource(services)
	if f.values.Source != (logstream.Source{ID: "a", Name: "api"}) {
		t.Fatalf("source = %#v, want first service selected", f.values.Source)
	}

	form := logstream.DefaultForm()
	form.Source = logstream.Source{ID: "gone"}
	f = newFormState(form)
	f.resolveSource(services)
	if f.values.Source.ID != "gone" {
		t.Fatalf("source = %#v, want unknown id kept", f.values.Source)
	}
}

func TestFormKeys_TextInputSwallowsShortcuts(t *testing.T) {
	h := newHarness(t)
	h.press("tab")
	if h.m.form.focus != fieldTail {
		t.Fatalf("focus = %v, want tail", h.m.form.focus)
	}

	// q types into the tail input instead of quitting.
	h.press("q")
	if got := h.m.form.tail.Value(); got != "20q" {
		t.Fatalf("tail input = %q, want 20q", got)
	}

	h.press("ctrl+t")
	if h.m.form.values.Since.Mode != logstream.SinceAbsolute {
		t.Fatalf("ctrl+t did not switch since mode while typing")
	}
}

func TestFormKeys_CycleAndPreset(t *testing.T) {
	h := newHarness(t)
	services := []swarm.Service{{ID: "svc0", Name: "web"}, {ID: "svc1", Name: "api"}}
	h.m.snapshot.Services = services

	h.press("l")
	if h.m.form.values.Source.ID != "svc0" {
		t.Fatalf("source after l = %q, want wrap to svc0", h.m.form.values.Source.ID)
	}
	h.press("h")
	if h.m.form.values.Source.ID != "svc1" {
		t.Fatalf("source after h = %q, want svc1", h.m.form.values.Source.ID)
	}

	h.press("2")
	if got := h.m.form.value().Since.Value(); got != "15m" {
		t.Fatalf("since after preset 2 = %q, want 15m", got)
	}
}
