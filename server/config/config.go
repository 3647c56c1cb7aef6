// Package config loads the settings of a motionwatch run from JSON or YAML
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/motionwatch/pkg/dbh"
	"github.com/cyclopcam/motionwatch/pkg/motion"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("Unknown config file format")

// Output controls what we write, besides the log
type Output struct {
	Console  bool   `json:"console" yaml:"console"`   // Print the tier map and region summary of every frame
	Mask     string `json:"mask" yaml:"mask"`         // YUV4MPEG2 mask video filename. "-" is stdout.
	PNGDir   string `json:"pngDir" yaml:"pngDir"`     // Directory for one PNG per frame
	PNGScale int    `json:"pngScale" yaml:"pngScale"` // Pixels per cell in PNG output
	FPS      int    `json:"fps" yaml:"fps"`           // Frame rate written into the mask video header
}

type Config struct {
	Input  string        `json:"input" yaml:"input"`   // Motion vector CSV
	Width  int           `json:"width" yaml:"width"`   // Video width in pixels
	Height int           `json:"height" yaml:"height"` // Video height in pixels
	Skip   int           `json:"skip" yaml:"skip"`     // Analyze only every Nth frame, after the first 10. 0 or 1 analyzes all.
	Motion motion.Config `json:"motion" yaml:"motion"`
	Output Output        `json:"output" yaml:"output"`
	DB     *dbh.DBConfig `json:"db" yaml:"db"`         // If nil, tracks are not stored
	Listen string        `json:"listen" yaml:"listen"` // Live feed address, such as ":8080". Empty disables it.
}

func DefaultConfig() Config {
	return Config{
		Motion: motion.DefaultConfig(),
		Output: Output{
			PNGScale: 8,
			FPS:      25,
		},
	}
}

// LoadConfig reads a .json, .yaml or .yml file.
// Settings that are absent from the file keep their default values.
func LoadConfig(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error loading %v: %w", filename, err)
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("Error loading as JSON %v: %w", filename, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("Error loading as YAML %v: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("%w '%v'", ErrUnknownFormat, filename)
	}
	return &cfg, nil
}

// Validate checks everything that the command line is allowed to leave out of a config file
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: no input file", motion.ErrBadConfig)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: video width and height must be positive (got %v x %v)", motion.ErrBadConfig, c.Width, c.Height)
	}
	if c.Skip < 0 {
		return fmt.Errorf("%w: skip may not be negative (got %v)", motion.ErrBadConfig, c.Skip)
	}
	if c.Output.PNGScale < 1 {
		return fmt.Errorf("%w: pngScale must be at least 1 (got %v)", motion.ErrBadConfig, c.Output.PNGScale)
	}
	return c.Motion.Validate()
}
