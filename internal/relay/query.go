package relay

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/swarmtail/internal/config"
	"github.com/five82/swarmtail/internal/logstream"
)

// streamQuery is the parsed query string of a log stream request.
type streamQuery struct {
	Tail       int
	Since      time.Time // zero means no lower bound
	Follow     bool
	Timestamps bool
	Stdout     bool
	Stderr     bool
	Details    bool
}

func parseQuery(values url.Values, now time.Time) (streamQuery, error) {
	q := streamQuery{
		Tail:       logstream.ResolveTail(values.Get("tail")),
		Follow:     flag(values, "follow", false),
		Timestamps: flag(values, "timestamps", false),
		Stdout:     flag(values, "stdout", true),
		Stderr:     flag(values, "stderr", true),
		Details:    flag(values, "details", false),
	}
	if since := strings.TrimSpace(values.Get("since")); since != "" {
		t, err := logstream.ParseSince(since, now)
		if err != nil {
			return streamQuery{}, err
		}
		q.Since = t
	}
	return q, nil
}

// flag reads a boolean parameter; absent or unparsable values use def.
func flag(values url.Values, name string, def bool) bool {
	raw, ok := values[name]
	if !ok || len(raw) == 0 {
		return def
	}
	v, err := strconv.ParseBool(raw[0])
	if err != nil {
		return def
	}
	return v
}

// wants reports whether the source's stream was requested.
func (q streamQuery) wants(src config.RelaySource) bool {
	if src.Stream == "stderr" {
		return q.Stderr
	}
	return q.Stdout
}

// accept drops lines whose leading timestamp predates Since. Lines without
// a timestamp are always kept.
func (q streamQuery) accept(line string) bool {
	if q.Since.IsZero() {
		return true
	}
	ts, ok := leadingTimestamp(line)
	return !ok || !ts.Before(q.Since)
}

// format applies the timestamps and details options. Lines that already
// start with a timestamp keep it instead of gaining a second one.
func (q streamQuery) format(src config.RelaySource, line string, seen time.Time) string {
	var prefix []string
	if q.Timestamps {
		if _, ok := leadingTimestamp(line); !ok {
			prefix = append(prefix, seen.UTC().Format(time.RFC3339Nano))
		}
	}
	if q.Details {
		prefix = append(prefix, "source.id="+src.ID+",source.name="+src.Name)
	}
	if len(prefix) == 0 {
		return line
	}
	return strings.Join(prefix, " ") + " " + line
}

func leadingTimestamp(line string) (time.Time, bool) {
	field := line
	if i := strings.IndexByte(line, ' '); i >= 0 {
		field = line[:i]
	}
	if field == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, field)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
