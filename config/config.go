// Package config loads the assaynet TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/TFMV/assaynet/cluster"
	"github.com/TFMV/assaynet/graph"
	"github.com/TFMV/assaynet/interact"
	"github.com/TFMV/assaynet/layout"
	"github.com/TFMV/assaynet/physics"
	"github.com/TFMV/assaynet/render"
)

// Config holds assaynet configuration.
type Config struct {
	View     ViewConfig       `toml:"view"`
	Physics  physics.Params   `toml:"physics"`
	Layout   layout.Params    `toml:"layout"`
	Interact interact.Options `toml:"interact"`
	Cluster  cluster.Options  `toml:"cluster"`
	Server   ServerConfig     `toml:"server"`
	Storage  StorageConfig    `toml:"storage"`
}

// ViewConfig controls the viewport and level of detail.
type ViewConfig struct {
	Width                 float64 `toml:"width"`
	Height                float64 `toml:"height"`
	FocusMargin           float64 `toml:"focus_margin"`
	FocusedViewThreshold  int     `toml:"focused_view_threshold"`
	OverlookViewThreshold int     `toml:"overlook_view_threshold"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr       string `toml:"addr"`
	TickMillis int    `toml:"tick_ms"`
}

// StorageConfig controls where datasets are kept.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the default configuration.
func Default() *Config {
	g := graph.DefaultOptions()
	t := render.DefaultThresholds()
	return &Config{
		View: ViewConfig{
			Width:                 g.Width,
			Height:                g.Height,
			FocusMargin:           g.FocusMargin,
			FocusedViewThreshold:  t.Focused,
			OverlookViewThreshold: t.Overlook,
		},
		Physics:  physics.DefaultParams(),
		Layout:   layout.DefaultParams(),
		Interact: interact.DefaultOptions(),
		Cluster:  cluster.DefaultOptions(),
		Server:   ServerConfig{Addr: ":8080", TickMillis: 16},
		Storage:  StorageConfig{Dir: filepath.Join(DataDir(), "datasets")},
	}
}

// GraphOptions returns the viewport options of a network model.
func (c *Config) GraphOptions() graph.Options {
	return graph.Options{Width: c.View.Width, Height: c.View.Height, FocusMargin: c.View.FocusMargin}
}

// Thresholds returns the level-of-detail switch points.
func (c *Config) Thresholds() render.Thresholds {
	return render.Thresholds{Focused: c.View.FocusedViewThreshold, Overlook: c.View.OverlookViewThreshold}
}

// TickInterval is the period of the physics clock.
func (c *Config) TickInterval() time.Duration {
	if c.Server.TickMillis <= 0 {
		return 16 * time.Millisecond
	}
	return time.Duration(c.Server.TickMillis) * time.Millisecond
}

// ConfigDir returns the assaynet config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "assaynet")
}

// DataDir returns the assaynet data directory path.
func DataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "assaynet")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path, or the default path when empty.
// A missing file yields the defaults; keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, or the default path when empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
