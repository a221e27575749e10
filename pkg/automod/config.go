package automod

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the automod configuration. It can be loaded from a YAML file.
type Config struct {
	// PromoKeywords are phrases that mark a promotion or commission post.
	PromoKeywords []string `yaml:"promo_keywords"`

	// ExemptChannels are channels where promotion is allowed.
	ExemptChannels []string `yaml:"exempt_channels"`

	// WelcomeKeywords are phrases that mark a welcome message.
	WelcomeKeywords []string `yaml:"welcome_keywords"`

	// WelcomeWindow is how long a welcome message is remembered for duplicate detection.
	WelcomeWindow time.Duration `yaml:"welcome_window"`

	// WelcomeCacheSize bounds the number of remembered welcome messages.
	WelcomeCacheSize int `yaml:"welcome_cache_size"`
}

// DefaultConfig returns the built in configuration.
func DefaultConfig() *Config {
	return &Config{
		PromoKeywords: []string{
			"commissions open",
			"comms open",
			"dm me for commission",
			"taking commissions",
			"check out my",
			"discord.gg/",
		},
		ExemptChannels:   make([]string, 0),
		WelcomeKeywords:  []string{"welcome"},
		WelcomeWindow:    10 * time.Minute,
		WelcomeCacheSize: 1024,
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading automod config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("error parsing automod config: %w", err)
	}

	if cfg.WelcomeWindow <= 0 {
		cfg.WelcomeWindow = DefaultConfig().WelcomeWindow
	}
	if cfg.WelcomeCacheSize <= 0 {
		cfg.WelcomeCacheSize = DefaultConfig().WelcomeCacheSize
	}
	return cfg, nil
}
