package logstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// DefaultMaxMessageLen bounds a displayed line when no limit is configured.
const DefaultMaxMessageLen = 10000

// TruncationMarker is appended to lines cut at the length limit.
const TruncationMarker = "…"

// Normalize turns an inbound payload into a display line of at most maxLen
// runes plus TruncationMarker. Text payloads pass through unchanged, other
// values are JSON encoded, and anything that cannot be encoded is rendered
// by a best-effort coercion. Normalize never panics.
func Normalize(payload any, maxLen int) (line string) {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	defer func() {
		if r := recover(); r != nil {
			line = truncateRunes(coerce(payload), maxLen)
		}
	}()
	return truncateRunes(toText(payload), maxLen)
}

func toText(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	}
	// Lines are shown verbatim, so <, > and & stay as written.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return coerce(payload)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// coerce renders scalars with fmt and everything else as its type name.
// Composite values are never walked so cyclic data cannot recurse.
func coerce(v any) (out string) {
	defer func() {
		if recover() != nil {
			out = fmt.Sprintf("<%T>", v)
		}
	}()
	if v == nil {
		return "null"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("<%T>", v)
}

func truncateRunes(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + TruncationMarker
		}
		n++
	}
	return s
}
