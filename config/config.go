package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the briefing service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains LLM provider settings
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	ChatModel   string        `mapstructure:"chat_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	HistorySize int           `mapstructure:"history_size"`
}

// SourcesConfig contains news source settings
type SourcesConfig struct {
	NewsAPI NewsAPIConfig `mapstructure:"newsapi"`
}

// NewsAPIConfig contains NewsAPI settings
type NewsAPIConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	Endpoint         string        `mapstructure:"endpoint"`
	MaxArticles      int           `mapstructure:"max_articles"`
	ReputableSources []string      `mapstructure:"reputable_sources"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// defaultReputableSources is the allow-list of news domains searched when the
// config file does not override sources.newsapi.reputable_sources.
var defaultReputableSources = []string{
	"reuters.com",
	"apnews.com",
	"bbc.com",
	"cnn.com",
	"npr.org",
	"wsj.com",
	"nytimes.com",
	"washingtonpost.com",
	"theguardian.com",
	"abcnews.go.com",
	"cbsnews.com",
	"nbcnews.com",
	"politico.com",
	"axios.com",
	"bloomberg.com",
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("geobrief")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GEOBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults plus env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "30s")

	v.SetDefault("server.address", ":8000")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.chat_model", "gpt-3.5-turbo")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.history_size", 5)

	v.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/everything")
	v.SetDefault("sources.newsapi.max_articles", 5)
	v.SetDefault("sources.newsapi.reputable_sources", defaultReputableSources)
	v.SetDefault("sources.newsapi.timeout", "15s")

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.periodic_logs", false)
}

// overrideFromEnv overrides configuration with environment variables for
// sensitive values that predate the GEOBRIEF_ prefix convention.
func overrideFromEnv(v *viper.Viper) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		v.Set("llm.api_key", apiKey)
	}
	if apiKey := os.Getenv("NEWSAPI_API_KEY"); apiKey != "" {
		v.Set("sources.newsapi.api_key", apiKey)
	}
	if addr := os.Getenv("GEOBRIEF_ADDR"); addr != "" {
		v.Set("server.address", addr)
	}
	if max := os.Getenv("GEOBRIEF_MAX_ARTICLES"); max != "" {
		if n, err := strconv.Atoi(max); err == nil {
			v.Set("sources.newsapi.max_articles", n)
		}
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model must be configured")
	}
	if cfg.Sources.NewsAPI.MaxArticles <= 0 {
		return fmt.Errorf("sources.newsapi.max_articles must be > 0")
	}
	if cfg.Sources.NewsAPI.MaxArticles > 5 {
		cfg.Sources.NewsAPI.MaxArticles = 5
	}
	if len(cfg.Sources.NewsAPI.ReputableSources) == 0 {
		return fmt.Errorf("sources.newsapi.reputable_sources must not be empty")
	}
	return nil
}
