// Package config handles converter configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/midgard-mdl/pkg/encoding"
)

// Material modes for imported meshes.
const (
	MaterialSingle   = "single"
	MaterialMultiple = "multiple"
)

// Config holds all converter settings.
type Config struct {
	Import    ImportConfig    `yaml:"import"`
	Export    ExportConfig    `yaml:"export"`
	Animation AnimationConfig `yaml:"animation"`
	Data      DataConfig      `yaml:"data"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ImportConfig selects what an import reads.
type ImportConfig struct {
	Geometry      bool   `yaml:"geometry"`
	Animations    bool   `yaml:"animations"`
	Walkmesh      bool   `yaml:"walkmesh"`       // read the .wok companion file
	SmoothGroups  bool   `yaml:"smooth_groups"`  // passed to the mesh builder
	MaterialMode  string `yaml:"material_mode"`  // single or multiple
	TextureSearch bool   `yaml:"texture_search"` // check bitmap references on disk
}

// ExportConfig selects what an export writes.
type ExportConfig struct {
	Animations     bool   `yaml:"animations"`
	Walkmesh       bool   `yaml:"walkmesh"`
	SmoothGroups   bool   `yaml:"smooth_groups"`
	ApplyModifiers bool   `yaml:"apply_modifiers"`
	Encoding       string `yaml:"encoding"` // utf-8 or cp1252
}

// AnimationConfig controls the global frame timeline.
type AnimationConfig struct {
	FPS        float64 `yaml:"fps"`
	StartFrame float64 `yaml:"start_frame"`
	Padding    float64 `yaml:"padding"` // frames between animations
}

// DataConfig holds data file search paths.
type DataConfig struct {
	TexturePaths []string `yaml:"texture_paths"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			Geometry:      true,
			Animations:    true,
			Walkmesh:      true,
			SmoothGroups:  true,
			MaterialMode:  MaterialSingle,
			TextureSearch: false,
		},
		Export: ExportConfig{
			Animations:     true,
			Walkmesh:       true,
			SmoothGroups:   true,
			ApplyModifiers: false,
			Encoding:       string(encoding.Windows1252),
		},
		Animation: AnimationConfig{
			FPS:        30,
			StartFrame: 1,
			Padding:    60,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that cannot be repaired silently.
func (c *Config) Validate() error {
	switch c.Import.MaterialMode {
	case MaterialSingle, MaterialMultiple:
	default:
		return fmt.Errorf("import.material_mode: unknown mode %q", c.Import.MaterialMode)
	}
	if _, ok := encoding.ParseName(c.Export.Encoding); !ok {
		return fmt.Errorf("export.encoding: unknown encoding %q", c.Export.Encoding)
	}
	if c.Animation.FPS <= 0 {
		return fmt.Errorf("animation.fps must be positive, got %v", c.Animation.FPS)
	}
	if c.Animation.Padding < 0 {
		return fmt.Errorf("animation.padding must not be negative, got %v", c.Animation.Padding)
	}
	return nil
}
