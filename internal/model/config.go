package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderConfig holds the settings for the mail provider API.
type ProviderConfig struct {
	// BaseURL is the root URL of the provider's REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// RateLimit caps outgoing requests per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// AddressPrefix is prepended to generated addresses.
	AddressPrefix string `mapstructure:"address_prefix" yaml:"address_prefix"`
}

// PollConfig controls the inbox polling loop.
type PollConfig struct {
	// IntervalSec is how often (in seconds) the active inbox is fetched.
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`

	// RetentionDays is the age after which messages are deleted locally
	// and on the server. Zero disables expiry.
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`

	// MaxPages bounds how many list pages are fetched per cycle.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`
}

// Interval returns the poll interval as a duration.
func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// Retention returns the retention window as a duration.
func (c PollConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// AIConfig holds settings for the generative-language integration.
type AIConfig struct {
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// StorageConfig selects the client-side key-value store.
type StorageConfig struct {
	// Driver is "sqlite" or "bolt".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Poll     PollConfig     `mapstructure:"poll" yaml:"poll"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
}

// ConfigDir returns ~/.config/ghostmail, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ghostmail")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/ghostmail/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Provider: ProviderConfig{
			BaseURL:       "https://api.mail.tm",
			RateLimit:     8,
			TimeoutSec:    30,
			AddressPrefix: "ghost_",
		},
		Poll: PollConfig{
			IntervalSec:   5,
			RetentionDays: 7,
			MaxPages:      3,
		},
		AI: AIConfig{
			Model:   "gemini-3-flash-preview",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		},
		Display: DisplayConfig{
			Theme: "dark",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   filepath.Join(ConfigDir(), "ghostmail.db"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with GHOSTMAIL_-prefixed environment variables
// (e.g. GHOSTMAIL_POLL_INTERVAL_SEC). If the file does not exist, the
// defaults are returned with environment overrides applied.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GHOSTMAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("provider.base_url", def.Provider.BaseURL)
	v.SetDefault("provider.rate_limit", def.Provider.RateLimit)
	v.SetDefault("provider.timeout_sec", def.Provider.TimeoutSec)
	v.SetDefault("provider.address_prefix", def.Provider.AddressPrefix)
	v.SetDefault("poll.interval_sec", def.Poll.IntervalSec)
	v.SetDefault("poll.retention_days", def.Poll.RetentionDays)
	v.SetDefault("poll.max_pages", def.Poll.MaxPages)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("ai.base_url", def.AI.BaseURL)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("storage.driver", def.Storage.Driver)
	v.SetDefault("storage.path", def.Storage.Path)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Poll.IntervalSec <= 0 {
		cfg.Poll.IntervalSec = def.Poll.IntervalSec
	}
	if cfg.Poll.MaxPages <= 0 {
		cfg.Poll.MaxPages = def.Poll.MaxPages
	}
	if cfg.Provider.RateLimit <= 0 {
		cfg.Provider.RateLimit = def.Provider.RateLimit
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("provider", cfg.Provider)
	v.Set("poll", cfg.Poll)
	v.Set("ai", cfg.AI)
	v.Set("display", cfg.Display)
	v.Set("storage", cfg.Storage)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
