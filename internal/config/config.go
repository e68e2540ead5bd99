package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries everything a store instance needs for its lifetime. It is
// loaded once and handed to the constructor; there is no process-wide state.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DSN renders the connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String()
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if strings.TrimSpace(cfg.Database.Name) == "" {
		cfg.Database.Name = "ficdex"
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Database.Host) == "" {
		return fmt.Errorf("database host is required")
	}
	if strings.TrimSpace(cfg.Database.User) == "" {
		return fmt.Errorf("database user is required")
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", cfg.Database.Port)
	}
	return nil
}
