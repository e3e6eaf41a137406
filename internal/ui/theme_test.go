package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

var streamStatuses = []string{"idle", "configuring", "connecting", "reconnecting", "streaming", "ended", "offline", "error"}

func TestThemes_DefineEveryStatusColor(t *testing.T) {
	for _, name := range ThemeNames() {
		theme := GetTheme(name)
		if theme.Name != name {
			t.Fatalf("GetTheme(%q).Name = %q", name, theme.Name)
		}
		for _, status := range streamStatuses {
			if theme.StatusColors[status] == "" {
				t.Errorf("theme %s has no color for %q", name, status)
			}
		}
	}
}

func TestGetTheme_UnknownFallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Solarized").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Solarized) = %q, want Nightfox", got)
	}
}

func TestNextTheme_Cycles(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"unknown", "Nightfox"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.current); got != tt.want {
			t.Errorf("NextTheme(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestStyles_WithBackgroundKeepsStatusFallback(t *testing.T) {
	styles := GetTheme("Slate").Styles().WithBackground("#000000")
	if styles.muted == "" || styles.background == "" {
		t.Fatalf("WithBackground dropped theme colors: muted %q background %q", styles.muted, styles.background)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"api", "api"},
		{"stack_api.1", "stack_api.1"},
		{"My Service/web", "My-Service-web"},
		{"  ../../etc  ", "etc"},
		{"日本", "logs"},
		{"", "logs"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"longer than ten", 10, "longer ..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddle_KeepsTail(t *testing.T) {
	got := truncateMiddle("http://dashboard.example.com/swarm/", 16)
	if got != "http:…com/swarm/" {
		t.Fatalf("truncateMiddle = %q, want http:…com/swarm/", got)
	}
	if got := truncateMiddle("short", 16); got != "short" {
		t.Fatalf("truncateMiddle(short) = %q, want unchanged", got)
	}
}

func TestClassifyConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("dial tcp 127.0.0.1:8080: connect: connection refused"), "OFFLINE"},
		{errors.New("dial tcp: lookup swarm: no such host"), "HOST NOT FOUND"},
		{errors.New("context deadline exceeded (Client.Timeout exceeded while awaiting headers): i/o timeout"), "TIMEOUT"},
		{errors.New("decode services: unexpected EOF"), "ERROR"},
	}
	for _, tt := range tests {
		if got := classifyConnectionError(tt.err); got != tt.want {
			t.Errorf("classifyConnectionError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestPoster_DropsUntilBound(t *testing.T) {
	var p poster
	if p.post(func() {}) {
		t.Fatalf("post = true before bind")
	}

	var got []tea.Msg
	p.bind(func(msg tea.Msg) { got = append(got, msg) })
	ran := false
	if !p.post(func() { ran = true }) {
		t.Fatalf("post = false after bind")
	}
	if len(got) != 1 {
		t.Fatalf("sent %d messages, want 1", len(got))
	}
	fn, ok := got[0].(runMsg)
	if !ok {
		t.Fatalf("sent %T, want runMsg", got[0])
	}
	fn()
	if !ran {
		t.Fatalf("posted func did not run")
	}
}
