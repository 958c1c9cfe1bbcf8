package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
)

// ErrUnsupported is returned when no known wallpaper mechanism is
// available on this system.
var ErrUnsupported = errors.New("wallpaper: no supported desktop found (need gsettings or feh)")

// runner executes a command. Swapped out in tests.
type runner func(ctx context.Context, name string, args ...string) error

func execRun(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// Setter applies a desktop background.
type Setter struct {
	run  runner
	look func(name string) (string, error)
}

// NewSetter returns a Setter using the real commands on PATH.
func NewSetter() *Setter {
	return &Setter{run: execRun, look: exec.LookPath}
}

// Set makes the image at path the desktop background. path must point to
// an existing local file; it is resolved to an absolute path because
// gsettings stores a file:// URI.
func (s *Setter) Set(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("wallpaper: resolve path: %w", err)
	}

	if _, err := s.look("gsettings"); err == nil {
		uri := "file://" + abs
		if err := s.run(ctx, "gsettings", "set", "org.gnome.desktop.background", "picture-uri", uri); err != nil {
			return fmt.Errorf("wallpaper: %w", err)
		}
		// Newer GNOME also reads the dark-mode key; failure to set it is
		// not fatal on older versions that lack the key.
		_ = s.run(ctx, "gsettings", "set", "org.gnome.desktop.background", "picture-uri-dark", uri)
		return nil
	}

	if _, err := s.look("feh"); err == nil {
		if err := s.run(ctx, "feh", "--bg-fill", abs); err != nil {
			return fmt.Errorf("wallpaper: %w", err)
		}
		return nil
	}

	return ErrUnsupported
}
