package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL           string `yaml:"url"`
		MigrationsURL string `yaml:"migrations_url"`
	} `yaml:"database"`
	Gemini struct {
		APIKey            string  `yaml:"api_key"`
		Model             string  `yaml:"model"`
		BaseURL           string  `yaml:"base_url"`
		MaxRetries        int     `yaml:"max_retries"`
		RetryBaseDelayMs  int64   `yaml:"retry_base_delay_ms"`
		TimeoutSeconds    int64   `yaml:"timeout_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"gemini"`
	RateLimit struct {
		MaxRequests   int   `yaml:"max_requests"`
		WindowSeconds int64 `yaml:"window_seconds"`
	} `yaml:"rate_limit"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int64  `yaml:"token_ttl_hours"`
	} `yaml:"auth"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// The API key is secret; allow the environment to override the file.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Database.MigrationsURL == "" {
		c.Database.MigrationsURL = "file://migrations"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash-exp"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Gemini.MaxRetries == 0 {
		c.Gemini.MaxRetries = 3
	}
	if c.Gemini.RetryBaseDelayMs == 0 {
		c.Gemini.RetryBaseDelayMs = 1000
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = 30
	}
	if c.Gemini.RequestsPerSecond == 0 {
		c.Gemini.RequestsPerSecond = 5.0
	}
	if c.Gemini.Burst == 0 {
		c.Gemini.Burst = 10
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 10
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24
	}
}

// GeminiTimeout returns the per-request timeout for Gemini calls.
func (c *Config) GeminiTimeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

// GeminiRetryBaseDelay returns the base delay for retry backoff.
func (c *Config) GeminiRetryBaseDelay() time.Duration {
	return time.Duration(c.Gemini.RetryBaseDelayMs) * time.Millisecond
}

// RateLimitWindow returns the trailing window for the per-user limiter.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// TokenTTL returns the JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}
