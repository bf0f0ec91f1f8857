package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Import defaults
	if !cfg.Import.Geometry || !cfg.Import.Animations || !cfg.Import.Walkmesh {
		t.Errorf("expected geometry, animations and walkmesh import by default, got %+v", cfg.Import)
	}
	if cfg.Import.MaterialMode != MaterialSingle {
		t.Errorf("expected material mode %q, got %q", MaterialSingle, cfg.Import.MaterialMode)
	}
	if cfg.Import.TextureSearch {
		t.Error("expected texture search to be off by default")
	}

	// Export defaults
	if cfg.Export.Encoding != "cp1252" {
		t.Errorf("expected cp1252 output, got %s", cfg.Export.Encoding)
	}
	if cfg.Export.ApplyModifiers {
		t.Error("expected apply_modifiers to be false by default")
	}

	// Animation defaults
	if cfg.Animation.FPS != 30 {
		t.Errorf("expected fps 30, got %v", cfg.Animation.FPS)
	}
	if cfg.Animation.StartFrame != 1 || cfg.Animation.Padding != 60 {
		t.Errorf("expected start 1 padding 60, got %v/%v", cfg.Animation.StartFrame, cfg.Animation.Padding)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mdltool.yaml")

	yamlContent := `
import:
  walkmesh: false
  material_mode: multiple
  texture_search: true

export:
  animations: false
  encoding: utf-8

animation:
  fps: 24
  padding: 10

data:
  texture_paths:
    - /data/textures

logging:
  level: "debug"
  log_file: "mdltool.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Import.Walkmesh {
		t.Error("expected walkmesh import to be disabled")
	}
	if !cfg.Import.Geometry {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.Import.MaterialMode != MaterialMultiple {
		t.Errorf("expected material mode multiple, got %s", cfg.Import.MaterialMode)
	}
	if cfg.Export.Animations {
		t.Error("expected animation export to be disabled")
	}
	if cfg.Export.Encoding != "utf-8" {
		t.Errorf("expected utf-8, got %s", cfg.Export.Encoding)
	}
	if cfg.Animation.FPS != 24 || cfg.Animation.Padding != 10 || cfg.Animation.StartFrame != 1 {
		t.Errorf("animation config = %+v", cfg.Animation)
	}
	if len(cfg.Data.TexturePaths) != 1 || cfg.Data.TexturePaths[0] != "/data/textures" {
		t.Errorf("texture paths = %v", cfg.Data.TexturePaths)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "mdltool.log" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
animation:
  fps: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/mdltool.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad material mode", func(c *Config) { c.Import.MaterialMode = "layered" }, "material_mode"},
		{"bad encoding", func(c *Config) { c.Export.Encoding = "shift-jis" }, "encoding"},
		{"zero fps", func(c *Config) { c.Animation.FPS = 0 }, "fps"},
		{"negative padding", func(c *Config) { c.Animation.Padding = -1 }, "padding"},
		{"windows-1252 alias", func(c *Config) { c.Export.Encoding = "windows-1252" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "mdltool.yaml")
	if err := os.WriteFile(configPath, []byte("animation:\n  fps: 60\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find mdltool.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fps flag",
			setup: func() { *flagFPS = 60 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Animation.FPS != 60 {
					t.Errorf("expected fps 60, got %v", cfg.Animation.FPS)
				}
			},
			teardown: func() { *flagFPS = 0 },
		},
		{
			name:  "start frame flag",
			setup: func() { *flagStartFrame = 0 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Animation.StartFrame != 0 {
					t.Errorf("expected start frame 0, got %v", cfg.Animation.StartFrame)
				}
			},
			teardown: func() { *flagStartFrame = -1 },
		},
		{
			name:  "no-anims flag",
			setup: func() { *flagNoAnims = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Import.Animations || cfg.Export.Animations {
					t.Error("expected animations disabled for import and export")
				}
			},
			teardown: func() { *flagNoAnims = false },
		},
		{
			name:  "no-walkmesh flag",
			setup: func() { *flagNoWalkmesh = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Import.Walkmesh || cfg.Export.Walkmesh {
					t.Error("expected walkmesh disabled for import and export")
				}
			},
			teardown: func() { *flagNoWalkmesh = false },
		},
		{
			name:  "textures flag",
			setup: func() { *flagTextures = "/tmp/tex" },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Import.TextureSearch || len(cfg.Data.TexturePaths) != 1 {
					t.Errorf("expected texture search on /tmp/tex, got %+v %v", cfg.Import, cfg.Data.TexturePaths)
				}
			},
			teardown: func() { *flagTextures = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mdltool.yaml")

	yamlContent := `
animation:
  fps: 24
  padding: 12
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagFPS = 60
	defer func() {
		*flagConfig = ""
		*flagFPS = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// FPS from flag, padding from file.
	if cfg.Animation.FPS != 60 {
		t.Errorf("expected fps 60 from flag, got %v", cfg.Animation.FPS)
	}
	if cfg.Animation.Padding != 12 {
		t.Errorf("expected padding 12 from file, got %v", cfg.Animation.Padding)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mdltool.yaml")
	if err := os.WriteFile(configPath, []byte("animation:\n  fps: -5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject a negative fps")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mdltool.yaml")
	cfg := Default()
	cfg.Animation.FPS = 15

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Animation.FPS != 15 {
		t.Errorf("expected fps 15 after reload, got %v", loaded.Animation.FPS)
	}

	cfg.Import.MaterialMode = "bogus"
	if err := cfg.SaveTo(path); err == nil {
		t.Error("expected SaveTo to refuse an invalid config")
	}
}
