package logstream

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SinceMode selects how the "since" field is entered.
type SinceMode int

const (
	SinceRelative SinceMode = iota
	SinceAbsolute
)

// SincePresets are the one-click relative ranges offered by the form.
var SincePresets = []string{"5m", "15m", "1h", "6h", "24h"}

// SinceUnits lists the accepted relative units in cycling order.
var SinceUnits = []string{"s", "m", "h", "d"}

var relativeSinceRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// absoluteLayouts are tried in order. Fractional seconds are accepted after
// the seconds field even when a layout does not spell them out.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ValidationError reports a form field that blocks a session from starting.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Field {
	case "source":
		return "select a service to stream"
	case "since":
		return fmt.Sprintf("invalid since %q: use a duration like 5m, 1h, 2d or an ISO-8601 timestamp", e.Value)
	default:
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
}

// IsValidSince reports whether expr is a relative duration (digits followed
// by s, m, h or d) or an ISO-8601 timestamp.
func IsValidSince(expr string) bool {
	if relativeSinceRe.MatchString(expr) {
		return true
	}
	_, ok := parseAbsolute(expr)
	return ok
}

// ParseSince resolves expr to the instant it names, measuring relative
// durations back from now. Durations too large to represent resolve to the
// zero time.
func ParseSince(expr string, now time.Time) (time.Time, error) {
	if m := relativeSinceRe.FindStringSubmatch(expr); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, nil
		}
		unit := unitDuration(m[2])
		if n > math.MaxInt64/int64(unit) {
			return time.Time{}, nil
		}
		return now.Add(-time.Duration(n) * unit), nil
	}
	if t, ok := parseAbsolute(expr); ok {
		return t, nil
	}
	return time.Time{}, &ValidationError{Field: "since", Value: expr}
}

func parseAbsolute(expr string) (time.Time, bool) {
	if strings.TrimSpace(expr) == "" {
		return time.Time{}, false
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, expr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func unitDuration(unit string) time.Duration {
	switch unit {
	case "s":
		return time.Second
	case "m":
		return time.Minute
	case "d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// SinceInput holds both since entry modes. Switching modes keeps the value
// typed into the other one.
type SinceInput struct {
	Mode   SinceMode
	Amount string
	Unit   string
	ISO    string
}

// DefaultSinceInput returns the one-hour relative range.
func DefaultSinceInput() SinceInput {
	return SinceInput{Mode: SinceRelative, Amount: "1", Unit: "h"}
}

// NewSinceInput parses expr into the matching entry mode: relative
// durations fill amount and unit, anything else is kept as a timestamp.
// Blank input yields DefaultSinceInput.
func NewSinceInput(expr string) SinceInput {
	in := DefaultSinceInput()
	expr = strings.TrimSpace(expr)
	if expr == "" || in.ApplyPreset(expr) {
		return in
	}
	in.Mode = SinceAbsolute
	in.ISO = expr
	return in
}

// Value renders the active mode as a since expression.
func (s SinceInput) Value() string {
	if s.Mode == SinceAbsolute {
		return strings.TrimSpace(s.ISO)
	}
	return strings.TrimSpace(s.Amount) + s.Unit
}

// Validate returns a *ValidationError when the active value is unusable.
func (s SinceInput) Validate() error {
	if v := s.Value(); !IsValidSince(v) {
		return &ValidationError{Field: "since", Value: v}
	}
	return nil
}

// ApplyPreset sets amount and unit together from a preset like "15m" and
// switches to relative mode. It reports false for anything that is not a
// relative duration.
func (s *SinceInput) ApplyPreset(preset string) bool {
	m := relativeSinceRe.FindStringSubmatch(preset)
	if m == nil {
		return false
	}
	s.Mode = SinceRelative
	s.Amount = m[1]
	s.Unit = m[2]
	return true
}

// ToggleMode flips between relative and absolute entry.
func (s *SinceInput) ToggleMode() {
	if s.Mode == SinceAbsolute {
		s.Mode = SinceRelative
		return
	}
	s.Mode = SinceAbsolute
}

// CycleUnit advances the relative unit s → m → h → d → s.
func (s *SinceInput) CycleUnit() {
	for i, u := range SinceUnits {
		if u == s.Unit {
			s.Unit = SinceUnits[(i+1)%len(SinceUnits)]
			return
		}
	}
	s.Unit = SinceUnits[0]
}
