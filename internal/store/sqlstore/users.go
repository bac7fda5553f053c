package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/domain"
)

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		CreatedAt:    parseTime(r.CreatedAt),
	}
}

func (s *Store) InsertUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO users (id,email,name,password_hash,created_at) VALUES (?,?,?,?,?)
`), u.ID, u.Email, u.Name, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateIdentity
		}
		return pkgerrors.Wrap(err, "insert user")
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, `SELECT id,email,name,password_hash,created_at FROM users WHERE email=?`, email)
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.findUser(ctx, `SELECT id,email,name,password_hash,created_at FROM users WHERE id=?`, userID)
}

func (s *Store) findUser(ctx context.Context, query, arg string) (*domain.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, s.q(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find user")
	}
	return row.toDomain(), nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY created_at, id`); err != nil {
		return nil, pkgerrors.Wrap(err, "list users")
	}
	return ids, nil
}
