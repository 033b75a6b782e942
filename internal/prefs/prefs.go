// Package prefs handles mantle user preferences persistence.
// Preferences are stored in ~/.config/mantle/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/mantle/internal/collection"
)

// Prefs holds user preferences for mantle.
type Prefs struct {
	Theme   string `toml:"theme"`
	View    string `toml:"view"`
	Sort    string `toml:"sort"`
	Reverse bool   `toml:"reverse"`
	Search  string `toml:"search"`
}

const (
	defaultPrefsPath = "~/.config/mantle/prefs.toml"
	defaultTheme     = "Dracula"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{
		Theme: defaultTheme,
		View:  collection.DefaultView.String(),
		Sort:  collection.DefaultSortMode.String(),
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	prefs := Default()

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
		return Default(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	if _, err := collection.ParseView(prefs.View); err != nil {
		prefs.View = collection.DefaultView.String()
	}
	if _, err := collection.ParseSortMode(prefs.Sort); err != nil {
		prefs.Sort = collection.DefaultSortMode.String()
	}

	return prefs, nil
}

// Query returns the collection query the preferences describe. Unknown
// view or sort names fall back to the defaults.
func (p Prefs) Query() collection.Query {
	view, err := collection.ParseView(p.View)
	if err != nil {
		view = collection.DefaultView
	}
	mode, err := collection.ParseSortMode(p.Sort)
	if err != nil {
		mode = collection.DefaultSortMode
	}
	return collection.Query{View: view, Term: p.Search, Sort: mode, Reverse: p.Reverse}
}

// WithQuery returns a copy of p that stores q.
func (p Prefs) WithQuery(q collection.Query) Prefs {
	p.View = q.View.String()
	p.Sort = q.Sort.String()
	p.Reverse = q.Reverse
	p.Search = q.Term
	return p
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
