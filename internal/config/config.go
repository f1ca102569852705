// Package config loads the pageview configuration from JSONC files and
// command line overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options. Zero fields of a file or of the
// overrides leave the lower layer unchanged.
type Config struct {
	WindowSize    Size     `json:"window_size"`
	ThumbSize     Size     `json:"thumb_size"`
	Padding       int      `json:"padding,omitempty"`
	Capacity      int      `json:"capacity,omitempty"`
	Buffer        int      `json:"buffer,omitempty"`
	Workers       int      `json:"workers,omitempty"`
	Debounce      Duration `json:"debounce"`
	RenderTimeout Duration `json:"render_timeout"`
	PreviewCache  int      `json:"preview_cache,omitempty"`
	Fast          bool     `json:"fast,omitempty"`
	Watch         bool     `json:"watch,omitempty"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string
	Explicit string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		WindowSize:    Size{X: 1300, Y: 1000},
		ThumbSize:     Size{X: 320, Y: 240},
		Padding:       4,
		Capacity:      100,
		Buffer:        5,
		Workers:       4,
		Debounce:      Duration(150 * time.Millisecond),
		RenderTimeout: Duration(10 * time.Second),
		PreviewCache:  4,
	}
}

// GlobalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/pageview/config.json if set, otherwise
// ~/.config/pageview/config.json. Returns the empty string if the home
// directory cannot be determined.
func GlobalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "pageview", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "pageview", "config.json")
	}
	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	ConfigPath string            // --config flag value
	Overrides  Config            // values set on the command line
	Env        map[string]string // environment variables
}

// Load builds the configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config, if it exists
// 3. Explicit config file via ConfigPath, which must exist
// 4. Command line overrides.
func Load(in LoadInput) (Config, error) {
	cfg := Default()

	if path := GlobalPath(in.Env); path != "" {
		global, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg = merge(cfg, global)
			cfg.Sources.Global = path
		}
	}

	if in.ConfigPath != "" {
		explicit, _, err := loadFile(in.ConfigPath, true)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, explicit)
		cfg.Sources.Explicit = in.ConfigPath
	}

	cfg = merge(cfg, in.Overrides)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects sizes and counts that are not positive.
func (c Config) Validate() error {
	switch {
	case c.WindowSize.X <= 0 || c.WindowSize.Y <= 0:
		return fmt.Errorf("%w: window size %v", ErrInvalidValue, c.WindowSize)
	case c.ThumbSize.X <= 0 || c.ThumbSize.Y <= 0:
		return fmt.Errorf("%w: thumbnail size %v", ErrInvalidValue, c.ThumbSize)
	case c.Padding < 0:
		return fmt.Errorf("%w: padding %d", ErrInvalidValue, c.Padding)
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity %d", ErrInvalidValue, c.Capacity)
	case c.Buffer < 0:
		return fmt.Errorf("%w: buffer %d", ErrInvalidValue, c.Buffer)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidValue, c.Workers)
	case c.Debounce < 0:
		return fmt.Errorf("%w: debounce %v", ErrInvalidValue, c.Debounce)
	case c.RenderTimeout < 0:
		return fmt.Errorf("%w: render timeout %v", ErrInvalidValue, c.RenderTimeout)
	case c.PreviewCache <= 0:
		return fmt.Errorf("%w: preview cache %d", ErrInvalidValue, c.PreviewCache)
	}
	return nil
}

// loadFile loads a config file. If mustExist is false, a missing file
// returns a zero config.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist) && !mustExist:
			return Config{}, false, nil
		case errors.Is(err, os.ErrNotExist):
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		default:
			return Config{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
		}
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.WindowSize != (Size{}) {
		base.WindowSize = overlay.WindowSize
	}
	if overlay.ThumbSize != (Size{}) {
		base.ThumbSize = overlay.ThumbSize
	}
	if overlay.Padding != 0 {
		base.Padding = overlay.Padding
	}
	if overlay.Capacity != 0 {
		base.Capacity = overlay.Capacity
	}
	if overlay.Buffer != 0 {
		base.Buffer = overlay.Buffer
	}
	if overlay.Workers != 0 {
		base.Workers = overlay.Workers
	}
	if overlay.Debounce != 0 {
		base.Debounce = overlay.Debounce
	}
	if overlay.RenderTimeout != 0 {
		base.RenderTimeout = overlay.RenderTimeout
	}
	if overlay.PreviewCache != 0 {
		base.PreviewCache = overlay.PreviewCache
	}
	base.Fast = base.Fast || overlay.Fast
	base.Watch = base.Watch || overlay.Watch
	return base
}
