package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// isolate points config loading at a fresh temp dir and clears viper's
// global state so tests cannot bleed into each other.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return filepath.Join(dir, "streamdown")
}

func writeConfigFile(t *testing.T, dir string, data map[string]any) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	raw, err := yaml.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.KrokiURL != "https://kroki.io" {
		t.Errorf("kroki url = %q", cfg.Render.KrokiURL)
	}
	if cfg.Render.TimeoutSeconds != 20 {
		t.Errorf("timeout = %d", cfg.Render.TimeoutSeconds)
	}
	if cfg.Render.Theme.Text != "#e2e8f0" {
		t.Errorf("theme text = %q", cfg.Render.Theme.Text)
	}
	if cfg.Stream.TickMillis != 30 {
		t.Errorf("tick = %d", cfg.Stream.TickMillis)
	}
	if cfg.Cache.MaxAnswers != 100 {
		t.Errorf("max answers = %d", cfg.Cache.MaxAnswers)
	}
	if !cfg.Render.PersistSVG {
		t.Error("artifact persistence not on by default")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	writeConfigFile(t, dir, map[string]any{
		"render": map[string]any{
			"kroki_url":       "http://localhost:8000",
			"timeout_seconds": 5,
			"theme": map[string]any{
				"primary": "#ff0000",
			},
		},
		"stream": map[string]any{
			"tick_millis": 16,
		},
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.KrokiURL != "http://localhost:8000" {
		t.Errorf("kroki url = %q", cfg.Render.KrokiURL)
	}
	if cfg.Render.TimeoutSeconds != 5 {
		t.Errorf("timeout = %d", cfg.Render.TimeoutSeconds)
	}
	if cfg.Render.Theme.Primary != "#ff0000" {
		t.Errorf("theme primary = %q", cfg.Render.Theme.Primary)
	}
	// Untouched keys keep their defaults.
	if cfg.Render.MermaidInkURL != "https://mermaid.ink" {
		t.Errorf("ink url = %q", cfg.Render.MermaidInkURL)
	}
	if cfg.Stream.TickMillis != 16 {
		t.Errorf("tick = %d", cfg.Stream.TickMillis)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STREAMDOWN_RENDER_WIDTH_HINT", "1200")
	t.Setenv("STREAMDOWN_CACHE_MAX_ANSWERS", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.WidthHint != 1200 {
		t.Errorf("width hint = %d", cfg.Render.WidthHint)
	}
	if cfg.Cache.MaxAnswers != 25 {
		t.Errorf("max answers = %d", cfg.Cache.MaxAnswers)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	bad := []byte("render: [unclosed\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), bad, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("malformed config file did not error")
	}
}

func TestGetConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-test", "streamdown") {
		t.Errorf("dir = %q", dir)
	}
}
