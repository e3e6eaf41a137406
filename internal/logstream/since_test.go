package logstream

import (
	"errors"
	"testing"
	"time"
)

func TestIsValidSince(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"5m", true},
		{"1h", true},
		{"30s", true},
		{"2d", true},
		{"0m", true},
		{"2020-01-01T00:00:00Z", true},
		{"2020-01-01T00:00:00.123+02:00", true},
		{"2020-01-01T10:30", true},
		{"2020-01-01T00:00Z", true},
		{"2020-01-01T00:00+01:00", true},
		{"2020-01-01T00:00:00+0100", true},
		{"2020-01-01T00:00:00.5-0530", true},
		{"2020-01-01T00:00+0100", true},
		{"2020-01-01", true},
		{"", false},
		{"   ", false},
		{"not-a-date", false},
		{"5", false},
		{"m5", false},
		{"5w", false},
		{"5 m", false},
		{"-5m", false},
		{"2020-13-01", false},
	}

	for _, tt := range tests {
		if got := IsValidSince(tt.expr); got != tt.want {
			t.Errorf("IsValidSince(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	got, err := ParseSince("90m", now)
	if err != nil {
		t.Fatalf("ParseSince returned error: %v", err)
	}
	if want := now.Add(-90 * time.Minute); !got.Equal(want) {
		t.Fatalf("ParseSince(90m) = %v, want %v", got, want)
	}

	got, err = ParseSince("2d", now)
	if err != nil {
		t.Fatalf("ParseSince returned error: %v", err)
	}
	if want := now.Add(-48 * time.Hour); !got.Equal(want) {
		t.Fatalf("ParseSince(2d) = %v, want %v", got, want)
	}

	got, err = ParseSince("2024-05-01T00:00:00Z", now)
	if err != nil {
		t.Fatalf("ParseSince returned error: %v", err)
	}
	if want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ParseSince(iso) = %v, want %v", got, want)
	}

	got, err = ParseSince("2024-05-01T00:00+0100", now)
	if err != nil {
		t.Fatalf("ParseSince returned error: %v", err)
	}
	if want := time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ParseSince(offset) = %v, want %v", got, want)
	}

	got, err = ParseSince("99999999999999999999d", now)
	if err != nil {
		t.Fatalf("ParseSince returned error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("ParseSince(huge) = %v, want zero time", got)
	}

	_, err = ParseSince("yesterday", now)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "since" {
		t.Fatalf("ParseSince(yesterday) error = %v, want since ValidationError", err)
	}
}

func TestSinceInput_ModesPreserveValues(t *testing.T) {
	in := DefaultSinceInput()
	if got := in.Value(); got != "1h" {
		t.Fatalf("default Value() = %q, want 1h", got)
	}

	in.ToggleMode()
	in.ISO = " 2024-01-01T00:00:00Z "
	if got := in.Value(); got != "2024-01-01T00:00:00Z" {
		t.Fatalf("absolute Value() = %q, want trimmed timestamp", got)
	}

	in.ToggleMode()
	if got := in.Value(); got != "1h" {
		t.Fatalf("Value() after switching back = %q, want 1h", got)
	}
	if in.ISO != " 2024-01-01T00:00:00Z " {
		t.Fatalf("ISO = %q, want it kept while relative", in.ISO)
	}
}

func TestSinceInput_ApplyPreset(t *testing.T) {
	in := SinceInput{Mode: SinceAbsolute, ISO: "2024-01-01", Amount: "3", Unit: "d"}
	for _, preset := range SincePresets {
		if !in.ApplyPreset(preset) {
			t.Fatalf("ApplyPreset(%q) = false, want true", preset)
		}
		if got := in.Value(); got != preset {
			t.Fatalf("Value() after preset = %q, want %q", got, preset)
		}
	}
	if in.Mode != SinceRelative {
		t.Fatalf("Mode = %v, want relative after preset", in.Mode)
	}
	if in.ApplyPreset("soon") {
		t.Fatalf("ApplyPreset(soon) = true, want false")
	}
	if got := in.Value(); got != "24h" {
		t.Fatalf("Value() after rejected preset = %q, want 24h", got)
	}
}

func TestSinceInput_ValidateAndCycleUnit(t *testing.T) {
	in := SinceInput{Mode: SinceRelative, Amount: "", Unit: "m"}
	var verr *ValidationError
	if err := in.Validate(); !errors.As(err, &verr) {
		t.Fatalf("Validate() = %v, want ValidationError for empty amount", err)
	}

	in.Amount = "15"
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	want := []string{"h", "d", "s", "m"}
	for _, w := range want {
		in.CycleUnit()
		if in.Unit != w {
			t.Fatalf("CycleUnit() unit = %q, want %q", in.Unit, w)
		}
	}
}

func TestNewSinceInput(t *testing.T) {
	tests := []struct {
		in   string
		mode SinceMode
		want string
	}{
		{"", SinceRelative, "1h"},
		{" 15m ", SinceRelative, "15m"},
		{"2024-01-01T00:00:00Z", SinceAbsolute, "2024-01-01T00:00:00Z"},
		{"tomorrow", SinceAbsolute, "tomorrow"},
	}
	for _, tt := range tests {
		got := NewSinceInput(tt.in)
		if got.Mode != tt.mode || got.Value() != tt.want {
			t.Errorf("NewSinceInput(%q) = mode %v value %q, want %v %q", tt.in, got.Mode, got.Value(), tt.mode, tt.want)
		}
	}
}
