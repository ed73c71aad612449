// Package config loads renderer configuration from a yaml file with env
// overrides. Everything has a working default: a missing config file is
// not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Render RenderConfig `mapstructure:"render"`
	Stream StreamConfig `mapstructure:"stream"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// RenderConfig configures the diagram render tiers and theme tokens.
type RenderConfig struct {
	KrokiURL       string      `mapstructure:"kroki_url"`       // primary remote service
	MmdcPath       string      `mapstructure:"mmdc_path"`       // local mermaid CLI, empty = $PATH lookup
	MermaidInkURL  string      `mapstructure:"mermaid_ink_url"` // public fallback, used strictly last
	TimeoutSeconds int         `mapstructure:"timeout_seconds"`   // per render attempt
	WidthHint      int         `mapstructure:"width_hint"`        // available display width in px
	PersistSVG     bool        `mapstructure:"persist_artifacts"` // cache rendered svg on disk
	Theme          ThemeConfig `mapstructure:"theme"`
}

// ThemeConfig holds the tokens injected into diagrams without their own
// init directive.
type ThemeConfig struct {
	FontFamily string `mapstructure:"font_family"`
	Primary    string `mapstructure:"primary"`
	Background string `mapstructure:"background"`
	Text       string `mapstructure:"text"`
	Line       string `mapstructure:"line"`
}

// StreamConfig tunes the reveal animation.
type StreamConfig struct {
	TickMillis int `mapstructure:"tick_millis"`
}

// CacheConfig bounds the seen-answer cache.
type CacheConfig struct {
	MaxAnswers int `mapstructure:"max_answers"`
}

// GetConfigDir returns the streamdown config directory, honoring
// XDG_CONFIG_HOME.
func GetConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "streamdown"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("STREAMDOWN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("render.kroki_url", "https://kroki.io")
	viper.SetDefault("render.mermaid_ink_url", "https://mermaid.ink")
	viper.SetDefault("render.timeout_seconds", 20)
	viper.SetDefault("render.width_hint", 800)
	viper.SetDefault("render.persist_artifacts", true)
	viper.SetDefault("render.theme.font_family", "Inter, ui-sans-serif, system-ui")
	viper.SetDefault("render.theme.primary", "#6366f1")
	viper.SetDefault("render.theme.background", "#1e1e2e")
	viper.SetDefault("render.theme.text", "#e2e8f0")
	viper.SetDefault("render.theme.line", "#94a3b8")
	viper.SetDefault("stream.tick_millis", 30)
	viper.SetDefault("cache.max_answers", 100)

	// Config file is optional.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
