package bot

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Obiajulu-gif/copperx-telegram/copperx"
	coreconfig "github.com/Obiajulu-gif/copperx-telegram/core/config"
	coredatabase "github.com/Obiajulu-gif/copperx-telegram/core/database"
	"github.com/Obiajulu-gif/copperx-telegram/notifier"
)

// Session backends.
const (
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"
)

// SessionConfig selects where conversation state lives. The memory backend
// needs no database; postgres survives restarts.
type SessionConfig struct {
	Backend    string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTLMinutes int    `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// Config aggregates core settings with the Copperx-specific sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	API           copperx.Config      `yaml:"api"`
	Database      coredatabase.Config `yaml:"database"`
	Session       SessionConfig       `yaml:"session"`
	Notifications notifier.Config     `yaml:"notifications"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads YAML configuration, applies environment overrides, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalizeSession(&cfg.Session); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeSession(s *SessionConfig) error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend == "" {
		backend = SessionBackendMemory
	}
	switch backend {
	case SessionBackendMemory, SessionBackendPostgres:
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, postgres", s.Backend)
	}
	s.Backend = backend

	if s.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must be >= 0")
	}
	return nil
}
