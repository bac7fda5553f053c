package sqlstore

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
)

func (s *Store) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var stmts []string
	if s.driver == DriverSQLite {
		stmts = append(stmts,
			`PRAGMA journal_mode=WAL;`,
			`PRAGMA busy_timeout=5000;`,
		)
	}
	stmts = append(stmts,
		`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS portfolios (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  exchange TEXT NOT NULL,
  total_value DOUBLE PRECISION NOT NULL,
  holdings TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS bots (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  bot_type TEXT NOT NULL,
  pair TEXT NOT NULL,
  status TEXT NOT NULL,
  profit DOUBLE PRECISION NOT NULL DEFAULT 0,
  config TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_bots_user_created ON bots(user_id, created_at, id);`,
	)

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return pkgerrors.Wrap(err, "migrate")
		}
	}
	return nil
}
