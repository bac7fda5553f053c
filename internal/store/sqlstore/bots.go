package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/domain"
)

type botRow struct {
	ID        string  `db:"id"`
	UserID    string  `db:"user_id"`
	Name      string  `db:"name"`
	Type      string  `db:"bot_type"`
	Pair      string  `db:"pair"`
	Status    string  `db:"status"`
	Profit    float64 `db:"profit"`
	Config    string  `db:"config"`
	CreatedAt string  `db:"created_at"`
	UpdatedAt string  `db:"updated_at"`
}

func (r botRow) toDomain() (domain.Bot, error) {
	b := domain.Bot{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Type:      domain.BotType(r.Type),
		Pair:      r.Pair,
		Status:    domain.BotStatus(r.Status),
		Profit:    r.Profit,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.Config), &b.Config); err != nil {
		return domain.Bot{}, pkgerrors.Wrapf(err, "decode config of bot %s", r.ID)
	}
	return b, nil
}

func (s *Store) InsertBot(ctx context.Context, b *domain.Bot) error {
	cfg := b.Config
	if cfg == nil {
		cfg = domain.BotConfig{}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return pkgerrors.Wrap(err, "encode bot config")
	}
	_, err = s.db.ExecContext(ctx, s.q(`
INSERT INTO bots (id,user_id,name,bot_type,pair,status,profit,config,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
`), b.ID, b.UserID, b.Name, string(b.Type), b.Pair, string(b.Status), b.Profit, string(raw),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return pkgerrors.Wrap(err, "insert bot")
	}
	return nil
}

func (s *Store) ListBotsByOwner(ctx context.Context, userID string) ([]domain.Bot, error) {
	var rows []botRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
SELECT id,user_id,name,bot_type,pair,status,profit,config,created_at,updated_at
FROM bots WHERE user_id=? ORDER BY created_at, id
`), userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list bots")
	}
	out := make([]domain.Bot, 0, len(rows))
	for _, r := range rows {
		b, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) UpdateBotStatus(ctx context.Context, userID, botID string, status domain.BotStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q(`
UPDATE bots SET status=?, updated_at=? WHERE id=? AND user_id=?
`), string(status), formatTime(at), botID, userID)
	if err != nil {
		return pkgerrors.Wrap(err, "update bot status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBot(ctx context.Context, userID, botID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM bots WHERE id=? AND user_id=?`), botID, userID)
	if err != nil {
		return pkgerrors.Wrap(err, "delete bot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) CountBotsByOwner(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM bots WHERE user_id=?`), userID); err != nil {
		return 0, pkgerrors.Wrap(err, "count bots")
	}
	return n, nil
}
