package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/domain"
)

type portfolioRow struct {
	ID         string  `db:"id"`
	UserID     string  `db:"user_id"`
	Exchange   string  `db:"exchange"`
	TotalValue float64 `db:"total_value"`
	Holdings   string  `db:"holdings"`
	UpdatedAt  string  `db:"updated_at"`
}

func (r portfolioRow) toDomain() (*domain.Portfolio, error) {
	p := &domain.Portfolio{
		ID:         r.ID,
		UserID:     r.UserID,
		Exchange:   r.Exchange,
		TotalValue: r.TotalValue,
		UpdatedAt:  parseTime(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.Holdings), &p.Holdings); err != nil {
		return nil, pkgerrors.Wrapf(err, "decode holdings of portfolio %s", r.ID)
	}
	return p, nil
}

func encodeHoldings(h []domain.Holding) (string, error) {
	if h == nil {
		h = []domain.Holding{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", pkgerrors.Wrap(err, "encode holdings")
	}
	return string(b), nil
}

func (s *Store) InsertPortfolioIfAbsent(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, bool, error) {
	holdings, err := encodeHoldings(p.Holdings)
	if err != nil {
		return nil, false, err
	}
	res, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO portfolios (id,user_id,exchange,total_value,holdings,updated_at)
VALUES (?,?,?,?,?,?)
ON CONFLICT (user_id) DO NOTHING
`), p.ID, p.UserID, p.Exchange, p.TotalValue, holdings, formatTime(p.UpdatedAt))
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "insert portfolio")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "insert portfolio")
	}
	stored, err := s.FindPortfolioByUser(ctx, p.UserID)
	if err != nil {
		return nil, false, err
	}
	return stored, n == 1, nil
}

func (s *Store) FindPortfolioByUser(ctx context.Context, userID string) (*domain.Portfolio, error) {
	var row portfolioRow
	err := s.db.GetContext(ctx, &row, s.q(`
SELECT id,user_id,exchange,total_value,holdings,updated_at FROM portfolios WHERE user_id=?
`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find portfolio")
	}
	return row.toDomain()
}

func (s *Store) ReplacePortfolioValuation(ctx context.Context, p *domain.Portfolio) error {
	holdings, err := encodeHoldings(p.Holdings)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q(`
UPDATE portfolios SET holdings=?, total_value=?, updated_at=? WHERE user_id=?
`), holdings, p.TotalValue, formatTime(p.UpdatedAt), p.UserID)
	if err != nil {
		return pkgerrors.Wrap(err, "update portfolio")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
