// Package backend selects and constructs the gateway implementation
// named by the configuration.
package backend

import (
	"context"
	"fmt"

	"carteira/internal/config"
	"carteira/internal/gateway"
	"carteira/internal/gateway/memory"
	"carteira/internal/gateway/postgres"
	"carteira/internal/gateway/sqlite"
	"carteira/internal/log"
)

type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// Factory builds gateways from configuration.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger.WithComponent(log.ComponentGateway)}
}

// Create returns the configured gateway. The caller owns the returned
// gateway and must Close it on shutdown.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		f.logger.Info("sqlite backend ready", "db_path", cfg.SQLiteDBPath)
		return store, nil

	case PostgresBackend:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres backend: %w", err)
		}
		f.logger.Info("postgres backend ready")
		return store, nil

	default:
		f.logger.Info("in-memory backend ready", log.FieldBackend, t.String())
		return memory.New(), nil
	}
}
