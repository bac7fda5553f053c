// Package store opens the configured ports.Store implementation.
package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/internal/store/badgerstore"
	"github.com/betbot/tradedesk/internal/store/memstore"
	"github.com/betbot/tradedesk/internal/store/mongostore"
	"github.com/betbot/tradedesk/internal/store/sqlstore"
	"github.com/betbot/tradedesk/pkg/config"
)

func Open(ctx context.Context, cfg config.StoreConfig) (ports.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, errors.Wrap(err, "mkdir sqlite dir")
		}
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.DSN)
	case config.DriverPostgres:
		return sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.DSN)
	case config.DriverBadger:
		key, err := badgerstore.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, errors.Wrap(err, "store encryption key")
		}
		return badgerstore.Open(badgerstore.Options{Path: cfg.DSN, EncryptionKey: key})
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}
