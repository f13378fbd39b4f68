package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for webchat
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Log     LogConfig     `mapstructure:"log"`
	UI      UIConfig      `mapstructure:"ui"`
	Mock    MockConfig    `mapstructure:"mock"`
}

// BackendConfig points the client at the website-chat backend
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 disables the timeout
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	File   string `mapstructure:"file"`
}

// UIConfig holds terminal rendering configuration
type UIConfig struct {
	Style         string `mapstructure:"style"`
	WordWrap      int    `mapstructure:"word_wrap"`
	ConfirmDelete bool   `mapstructure:"confirm_delete"`
}

// MockConfig holds configuration for the development backend
type MockConfig struct {
	Host          string   `mapstructure:"host"`
	Port          int      `mapstructure:"port"`
	DBPath        string   `mapstructure:"db_path"`
	FetchTitles   bool     `mapstructure:"fetch_titles"`
	OllamaURL     string   `mapstructure:"ollama_url"`
	OllamaRunning bool     `mapstructure:"ollama_running"`
	LockedIDs     []string `mapstructure:"locked_ids"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// WEBCHAT_BACKEND_BASE_URL overrides backend.base_url
	v.SetEnvPrefix("WEBCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("ui.style", "dark")
	v.SetDefault("ui.word_wrap", 80)
	v.SetDefault("ui.confirm_delete", true)

	v.SetDefault("mock.host", "127.0.0.1")
	v.SetDefault("mock.port", 8000)
	v.SetDefault("mock.db_path", "./data/webchat-mock.db")
	v.SetDefault("mock.fetch_titles", false)
	v.SetDefault("mock.ollama_url", "")
	v.SetDefault("mock.ollama_running", true)
	v.SetDefault("mock.locked_ids", []string{})
}

// Validate rejects configurations the client cannot start with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// MockAddress returns the development backend listen address
func (c *Config) MockAddress() string {
	return fmt.Sprintf("%s:%d", c.Mock.Host, c.Mock.Port)
}
