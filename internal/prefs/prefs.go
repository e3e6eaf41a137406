// Package prefs handles swarmtail user preferences persistence.
// Preferences are stored in ~/.config/swarmtail/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/swarmtail/internal/logstream"
)

// Prefs holds user preferences for swarmtail.
type Prefs struct {
	Theme string    `toml:"theme"`
	Form  FormPrefs `toml:"form"`
}

// FormPrefs remembers the last stream form between runs.
type FormPrefs struct {
	Service    string `toml:"service,omitempty"`
	Tail       string `toml:"tail,omitempty"`
	SinceMode  string `toml:"since_mode,omitempty"`
	Amount     string `toml:"since_amount,omitempty"`
	Unit       string `toml:"since_unit,omitempty"`
	ISO        string `toml:"since_iso,omitempty"`
	Follow     bool   `toml:"follow"`
	Timestamps bool   `toml:"timestamps"`
	Stdout     bool   `toml:"stdout"`
	Stderr     bool   `toml:"stderr"`
	Details    bool   `toml:"details"`
	Saved      bool   `toml:"saved"`
}

const (
	defaultPrefsPath = "~/.config/swarmtail/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	prefs := Prefs{Theme: defaultTheme}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// FromForm captures a form for saving. Only the service ID is kept; the
// name is looked up again in the catalog.
func FromForm(form logstream.FormState) FormPrefs {
	mode := "relative"
	if form.Since.Mode == logstream.SinceAbsolute {
		mode = "absolute"
	}
	return FormPrefs{
		Service:    form.Source.ID,
		Tail:       form.Tail,
		SinceMode:  mode,
		Amount:     form.Since.Amount,
		Unit:       form.Since.Unit,
		ISO:        form.Since.ISO,
		Follow:     form.Follow,
		Timestamps: form.Timestamps,
		Stdout:     form.Stdout,
		Stderr:     form.Stderr,
		Details:    form.Details,
		Saved:      true,
	}
}

// Apply overlays saved values onto base. Unsaved prefs return base as is.
func (f FormPrefs) Apply(base logstream.FormState) logstream.FormState {
	if !f.Saved {
		return base
	}
	form := base
	if f.Service != "" {
		form.Source = logstream.Source{ID: f.Service}
	}
	if f.Tail != "" {
		form.Tail = f.Tail
	}
	if f.SinceMode == "absolute" {
		form.Since.Mode = logstream.SinceAbsolute
	} else {
		form.Since.Mode = logstream.SinceRelative
	}
	if f.Amount != "" {
		form.Since.Amount = f.Amount
	}
	if f.Unit != "" {
		form.Since.Unit = f.Unit
	}
	form.Since.ISO = f.ISO
	form.Follow = f.Follow
	form.Timestamps = f.Timestamps
	form.Stdout = f.Stdout
	form.Stderr = f.Stderr
	form.Details = f.Details
	return form
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
