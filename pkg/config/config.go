// Package config provides configuration management for Buddy
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" mapstructure:"host" validate:"required"`
	Port         int           `yaml:"port" json:"port" mapstructure:"port" validate:"required,gt=0"`
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty" mapstructure:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty" mapstructure:"cors_origins"`
}

// DatabaseConfig holds persistence settings
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path" mapstructure:"path" validate:"required"`
}

// AuthConfig holds session and credential settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret" json:"jwt_secret" mapstructure:"jwt_secret" validate:"required"`
	TokenExpiry   time.Duration `yaml:"token_expiry,omitempty" json:"token_expiry,omitempty" mapstructure:"token_expiry"`
	AdminUsername string        `yaml:"admin_username,omitempty" json:"admin_username,omitempty" mapstructure:"admin_username"`
}

// ProvidersConfig holds the external fact source endpoints. Base URLs are
// configurable so tests can point providers at local servers.
type ProvidersConfig struct {
	DictionaryURL string        `yaml:"dictionary_url,omitempty" json:"dictionary_url,omitempty" mapstructure:"dictionary_url"`
	JokeURL       string        `yaml:"joke_url,omitempty" json:"joke_url,omitempty" mapstructure:"joke_url"`
	AdviceURL     string        `yaml:"advice_url,omitempty" json:"advice_url,omitempty" mapstructure:"advice_url"`
	WeatherURL    string        `yaml:"weather_url,omitempty" json:"weather_url,omitempty" mapstructure:"weather_url"`
	WikipediaURL  string        `yaml:"wikipedia_url,omitempty" json:"wikipedia_url,omitempty" mapstructure:"wikipedia_url"`
	Timeout       time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`
}

// Config is the root configuration for the Buddy service
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server" mapstructure:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database" mapstructure:"database"`
	Auth      AuthConfig      `yaml:"auth" json:"auth" mapstructure:"auth"`
	Providers ProvidersConfig `yaml:"providers" json:"providers" mapstructure:"providers"`
	LogLevel  string          `yaml:"log_level,omitempty" json:"log_level,omitempty" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	mu        sync.RWMutex
	validator *validator.Validate
}

// New creates a configuration populated with defaults
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "./data/buddy.db",
		},
		Auth: AuthConfig{
			TokenExpiry:   24 * time.Hour,
			AdminUsername: "admin",
		},
		Providers: ProvidersConfig{
			DictionaryURL: "https://api.dictionaryapi.dev",
			JokeURL:       "https://official-joke-api.appspot.com",
			AdviceURL:     "https://api.adviceslip.com",
			WeatherURL:    "https://wttr.in",
			WikipediaURL:  "https://en.wikipedia.org",
			Timeout:       10 * time.Second,
		},
		LogLevel:  "info",
		validator: validator.New(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.validator == nil {
		c.validator = validator.New()
	}
	if err := c.validator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// FromFile loads configuration from a YAML or JSON file, overriding defaults
func (c *Config) FromFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return v.Unmarshal(c)
}

// FromEnv overrides configuration from BUDDY_* environment variables,
// e.g. BUDDY_AUTH_JWT_SECRET, BUDDY_SERVER_PORT.
func (c *Config) FromEnv() {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := viper.New()
	v.SetEnvPrefix("BUDDY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if secret := v.GetString("auth.jwt_secret"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if port := v.GetInt("server.port"); port != 0 {
		c.Server.Port = port
	}
	if path := v.GetString("database.path"); path != "" {
		c.Database.Path = path
	}
	if level := v.GetString("log_level"); level != "" {
		c.LogLevel = level
	}
}

// Watch reloads the file on change and invokes callback with the fresh config.
// Reload failures keep the previous configuration.
func (c *Config) Watch(path string, callback func(*Config)) error {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fresh := New()
		if err := v.Unmarshal(fresh); err != nil {
			return
		}
		if err := fresh.Validate(); err != nil {
			return
		}
		callback(fresh)
	})
	v.WatchConfig()

	return nil
}

// ToYAML renders the effective configuration, with the signing secret
// masked
func (c *Config) ToYAML() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := struct {
		Server    ServerConfig    `yaml:"server"`
		Database  DatabaseConfig  `yaml:"database"`
		Auth      AuthConfig      `yaml:"auth"`
		Providers ProvidersConfig `yaml:"providers"`
		LogLevel  string          `yaml:"log_level"`
	}{c.Server, c.Database, c.Auth, c.Providers, c.LogLevel}
	if out.Auth.JWTSecret != "" {
		out.Auth.JWTSecret = "********"
	}
	return yaml.Marshal(&out)
}

// Addr returns the server listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
