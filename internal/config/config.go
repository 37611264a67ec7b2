// Package config resolves server configuration from the environment and the
// optional poll definition file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mistakeknot/liveboard/internal/core"
)

const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// Addr is the TCP listen address.
	Addr string `env:"LIVEBOARD_ADDR" envDefault:":7474"`
	// SocketPath optionally serves the same API on a unix socket.
	SocketPath string `env:"LIVEBOARD_SOCKET"`
	// Backend selects the backing slot: redis, sqlite, or memory.
	Backend string `env:"LIVEBOARD_BACKEND" envDefault:"redis"`
	// RedisURL is the backing store address for the redis backend.
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	// DBPath is the sqlite file for the sqlite backend.
	DBPath string `env:"LIVEBOARD_DB" envDefault:"liveboard.db"`
	// PollFile optionally overrides the default vote options (yaml).
	PollFile string `env:"LIVEBOARD_POLL_FILE"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Backend {
	case BackendRedis, BackendSQLite, BackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return cfg, nil
}

type pollFile struct {
	Options []struct {
		ID    string `yaml:"id"`
		Label string `yaml:"label"`
	} `yaml:"options"`
}

// LoadPollOptions reads the poll definition file. An empty path means "use
// the built-in poll" and returns nil; a malformed file is a startup error.
func LoadPollOptions(path string) ([]core.VoteOption, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read poll file: %w", err)
	}
	var pf pollFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse poll file: %w", err)
	}
	if len(pf.Options) == 0 {
		return nil, fmt.Errorf("poll file %s defines no options", path)
	}
	options := make([]core.VoteOption, 0, len(pf.Options))
	for i, opt := range pf.Options {
		if strings.TrimSpace(opt.ID) == "" || strings.TrimSpace(opt.Label) == "" {
			return nil, fmt.Errorf("poll option %d missing id or label", i)
		}
		options = append(options, core.VoteOption{ID: opt.ID, Label: opt.Label})
	}
	return options, nil
}
