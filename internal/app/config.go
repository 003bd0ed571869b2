package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig `koanf:"browser" validate:"required"`
	Scrape  ScrapeConfig  `koanf:"scrape" validate:"required"`
	Server  ServerConfig  `koanf:"server" validate:"required"`
}

// BrowserConfig holds settings for the headless browser session.
type BrowserConfig struct {
	ChromePath string         `koanf:"chrome_path"`
	Headless   bool           `koanf:"headless"`
	NoSandbox  bool           `koanf:"no_sandbox"`
	Viewport   ViewportConfig `koanf:"viewport" validate:"required"`
	NavTimeout time.Duration  `koanf:"nav_timeout" validate:"required"`
	// PageSettle absorbs asynchronous initialization races after a new
	// page or context is created, before the first navigation.
	PageSettle time.Duration `koanf:"page_settle" validate:"required"`
}

// ViewportConfig holds the emulated window dimensions.
type ViewportConfig struct {
	Width  int `koanf:"width" validate:"required,min=320"`
	Height int `koanf:"height" validate:"required,min=240"`
}

// ScrapeConfig tunes the incremental reveal loop and run pacing.
type ScrapeConfig struct {
	// MaxCycles caps reveal cycles per target. Zero means use the
	// per-content-type default.
	MaxCycles int `koanf:"max_cycles" validate:"min=0"`
	// NoProgressLimit is how many consecutive cycles without new
	// comments end a target. Zero means use the per-type default.
	NoProgressLimit  int           `koanf:"no_progress_limit" validate:"min=0"`
	MaxReplyDepth    int           `koanf:"max_reply_depth" validate:"required,min=1"`
	InterTargetDelay time.Duration `koanf:"inter_target_delay" validate:"required"`
	// SettleMin/SettleMax bound the randomized delay after each page
	// interaction.
	SettleMin time.Duration `koanf:"settle_min" validate:"required"`
	SettleMax time.Duration `koanf:"settle_max" validate:"required,gtefield=SettleMin"`
}

// ServerConfig holds the control-plane HTTP server settings.
type ServerConfig struct {
	Addr      string `koanf:"addr" validate:"required"`
	OutputDir string `koanf:"output_dir" validate:"required"`
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:   true,
			NoSandbox:  true,
			Viewport:   ViewportConfig{Width: 1280, Height: 800},
			NavTimeout: 60 * time.Second,
			PageSettle: time.Second,
		},
		Scrape: ScrapeConfig{
			MaxReplyDepth:    4,
			InterTargetDelay: 3 * time.Second,
			SettleMin:        200 * time.Millisecond,
			SettleMax:        400 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:      ":8080",
			OutputDir: "output",
		},
	}
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, fmt.Errorf("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}
