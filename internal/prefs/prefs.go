// Package prefs persists small client preferences on disk.
package prefs

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/peterbourgon/diskv/v3"

	"github.com/Makepad-fr/waypoint/internal/ui"
)

const themeKey = "theme"

// Prefs is a flat key/value directory. Missing keys read as defaults.
type Prefs struct {
	d      *diskv.Diskv
	logger *slog.Logger
}

func Open(dir string, logger *slog.Logger) *Prefs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefs{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 64 * 1024,
		}),
		logger: logger,
	}
}

// Theme returns the stored theme. Only "light" is remembered; anything
// else, including a read failure, means dark.
func (p *Prefs) Theme() string {
	b, err := p.d.Read(themeKey)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("reading theme preference", "error", err)
		}
		return ui.ThemeDark
	}
	if string(b) == ui.ThemeLight {
		return ui.ThemeLight
	}
	return ui.ThemeDark
}

// SetTheme stores light, or erases the key for dark.
func (p *Prefs) SetTheme(name string) error {
	if name == ui.ThemeLight {
		return p.d.Write(themeKey, []byte(ui.ThemeLight))
	}
	if !p.d.Has(themeKey) {
		return nil
	}
	return p.d.Erase(themeKey)
}

// ToggleTheme flips and persists the theme, returning the new name.
func (p *Prefs) ToggleTheme() (string, error) {
	next := ui.ThemeLight
	if p.Theme() == ui.ThemeLight {
		next = ui.ThemeDark
	}
	return next, p.SetTheme(next)
}
