// Package config holds the run configuration shared by the CLI flags, the
// wizard and configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mrsinham/slicemovie/internal/discover"
	"github.com/mrsinham/slicemovie/internal/intensity"
	"github.com/mrsinham/slicemovie/internal/logging"
	"github.com/mrsinham/slicemovie/internal/render"
)

// Config is the complete run configuration.
type Config struct {
	Input     InputConfig     `yaml:"input" toml:"input"`
	Output    OutputConfig    `yaml:"output" toml:"output"`
	Intensity IntensityConfig `yaml:"intensity" toml:"intensity"`
	Log       logging.Config  `yaml:"log" toml:"log"`
}

// InputConfig selects the input volumes.
type InputConfig struct {
	DataDir   string   `yaml:"data_dir" toml:"data_dir"`
	Filters   []string `yaml:"filters" toml:"filters"`
	Exclude   []string `yaml:"exclude,omitempty" toml:"exclude"`
	Recursive bool     `yaml:"recursive" toml:"recursive"`
}

// OutputConfig controls the animation file.
type OutputConfig struct {
	Path     string  `yaml:"path" toml:"path"`
	FPS      int     `yaml:"fps" toml:"fps"`
	DPI      int     `yaml:"dpi" toml:"dpi"`
	Colormap string  `yaml:"colormap" toml:"colormap"`
	FFmpeg   string  `yaml:"ffmpeg" toml:"ffmpeg"`
	Width    float64 `yaml:"width_inches" toml:"width_inches"`
	Height   float64 `yaml:"height_inches" toml:"height_inches"`
}

// IntensityConfig sets the display range percentiles.
type IntensityConfig struct {
	Lower      float64 `yaml:"lower" toml:"lower"`
	Upper      float64 `yaml:"upper" toml:"upper"`
	Method     string  `yaml:"method" toml:"method"`
	MaxSamples int     `yaml:"max_samples" toml:"max_samples"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	r := render.DefaultOptions()
	i := intensity.DefaultOptions()
	return Config{
		Input: InputConfig{
			Filters:   append([]string(nil), discover.DefaultFilters...),
			Recursive: true,
		},
		Output: OutputConfig{
			Path:     "slices_movie.mp4",
			FPS:      r.FPS,
			DPI:      r.DPI,
			Colormap: r.Colormap,
			FFmpeg:   r.FFmpeg,
			Width:    r.FigureWidth,
			Height:   r.FigureHeight,
		},
		Intensity: IntensityConfig{
			Lower:  i.Lower,
			Upper:  i.Upper,
			Method: string(i.Method),
		},
		Log: logging.Config{MaxSize: 100, MaxAge: 28},
	}
}

// Validate checks that the configuration can drive a run.
func (c Config) Validate() error {
	if c.Input.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := c.RenderOptions().Validate(); err != nil {
		return err
	}
	return c.IntensityOptions().Validate()
}

// RenderOptions returns the renderer settings.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		FPS:          c.Output.FPS,
		DPI:          c.Output.DPI,
		Colormap:     c.Output.Colormap,
		FigureWidth:  c.Output.Width,
		FigureHeight: c.Output.Height,
		FFmpeg:       c.Output.FFmpeg,
	}
}

// IntensityOptions returns the display range settings.
func (c Config) IntensityOptions() intensity.Options {
	return intensity.Options{
		Lower:      c.Intensity.Lower,
		Upper:      c.Intensity.Upper,
		Method:     intensity.Method(c.Intensity.Method),
		MaxSamples: c.Intensity.MaxSamples,
	}
}

// Load reads a configuration file on top of the defaults. Files ending in
// .toml are decoded as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not decode TOML config %s: %w", path, err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not decode YAML config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
