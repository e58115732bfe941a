package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/database"
)

// Open builds the Store selected by the client configuration.
func Open(ctx context.Context, cfg *config.ClientConfig, opts ...Option) (*Store, error) {
	var kv KV
	switch cfg.StoreDriver {
	case config.StoreFile, "":
		kv = NewFileKV(cfg.DataDir)
	case config.StoreMemory:
		kv = NewMemoryKV()
	case config.StoreSQLite, config.StorePostgres:
		dsn := cfg.StoreDSN
		if cfg.StoreDriver == config.StoreSQLite {
			if dsn == "" {
				dsn = filepath.Join(cfg.DataDir, "issuedesk.db")
			}
			if err := ensureDir(dsn); err != nil {
				return nil, err
			}
		}
		db, err := database.Open(string(cfg.StoreDriver), dsn)
		if err != nil {
			return nil, err
		}
		sqlKV, err := NewSQLKV(db)
		if err != nil {
			return nil, err
		}
		kv = sqlKV
	case config.StoreRedis:
		client, err := database.NewRedisClient(ctx, cfg.StoreDSN)
		if err != nil {
			return nil, err
		}
		kv = NewRedisKV(client, "issuedesk:")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return New(kv, opts...), nil
}

// ensureDir creates the parent directory of a sqlite file path. URI and
// in-memory DSNs are left to the driver.
func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	return nil
}
