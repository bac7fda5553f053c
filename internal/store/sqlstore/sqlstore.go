// Package sqlstore implements ports.Store on a relational database through
// sqlx. The same schema and queries serve SQLite (modernc, pure Go) and
// PostgreSQL (lib/pq); placeholders are rebound per driver.
package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/pkg/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// 固定宽度的时间格式，保证 TEXT 列按字典序即按时间排序
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ ports.Store = (*Store)(nil)

type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to driver/dsn and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, pkgerrors.Errorf("sqlstore: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		// SQLite 单写者；串行化连接避免 SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrapf(err, "ping %s", driver)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Infof("sqlstore: %s ready", driver)
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// q rewrites ? placeholders for the active driver.
func (s *Store) q(query string) string { return s.db.Rebind(query) }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
