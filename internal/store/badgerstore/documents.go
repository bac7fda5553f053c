package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/domain"
)

// userDoc 持久化形态；domain.User 的 PasswordHash 在 JSON 中被隐藏
type userDoc struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Store) InsertUser(_ context.Context, u *domain.User) error {
	doc := userDoc{ID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
	err := s.update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(emailKey(u.Email)))
		if err == nil {
			return domain.ErrDuplicateIdentity
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(emailKey(u.Email)), []byte(u.ID)); err != nil {
			return err
		}
		return setJSON(txn, userKey(u.ID), doc)
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateIdentity) {
		return pkgerrors.Wrap(err, "insert user")
	}
	return err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKey(email)))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		userID = string(v)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find user")
	}
	return s.FindUserByID(ctx, userID)
}

func (s *Store) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	var doc userDoc
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(userID), &doc)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find user")
	}
	return &domain.User{ID: doc.ID, Email: doc.Email, Name: doc.Name, PasswordHash: doc.PasswordHash, CreatedAt: doc.CreatedAt}, nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("users/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), "users/"))
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list users")
	}
	return ids, nil
}

func (s *Store) InsertPortfolioIfAbsent(_ context.Context, p *domain.Portfolio) (*domain.Portfolio, bool, error) {
	var (
		stored   domain.Portfolio
		inserted bool
	)
	err := s.update(func(txn *badger.Txn) error {
		inserted = false
		err := getJSON(txn, portfolioKey(p.UserID), &stored)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		stored = *p.Clone()
		inserted = true
		return setJSON(txn, portfolioKey(p.UserID), stored)
	})
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "insert portfolio")
	}
	return &stored, inserted, nil
}

func (s *Store) FindPortfolioByUser(_ context.Context, userID string) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, portfolioKey(userID), &p)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find portfolio")
	}
	return &p, nil
}

func (s *Store) ReplacePortfolioValuation(_ context.Context, p *domain.Portfolio) error {
	err := s.update(func(txn *badger.Txn) error {
		var cur domain.Portfolio
		if err := getJSON(txn, portfolioKey(p.UserID), &cur); err != nil {
			return err
		}
		cur.Holdings = append([]domain.Holding(nil), p.Holdings...)
		cur.TotalValue = p.TotalValue
		cur.UpdatedAt = p.UpdatedAt
		return setJSON(txn, portfolioKey(p.UserID), cur)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return pkgerrors.Wrap(err, "replace portfolio")
	}
	return nil
}

func (s *Store) InsertBot(_ context.Context, b *domain.Bot) error {
	doc := *b
	if doc.Config == nil {
		doc.Config = domain.BotConfig{}
	}
	err := s.update(func(txn *badger.Txn) error {
		return setJSON(txn, botKey(b.UserID, b.ID), doc)
	})
	return pkgerrors.Wrap(err, "insert bot")
}

func (s *Store) ListBotsByOwner(_ context.Context, userID string) ([]domain.Bot, error) {
	var out []domain.Bot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(botPrefix(userID))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var b domain.Bot
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			}); err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list bots")
	}
	return out, nil
}

func (s *Store) UpdateBotStatus(_ context.Context, userID, botID string, status domain.BotStatus, at time.Time) error {
	err := s.update(func(txn *badger.Txn) error {
		var b domain.Bot
		if err := getJSON(txn, botKey(userID, botID), &b); err != nil {
			return err
		}
		b.Status = status
		b.UpdatedAt = at
		return setJSON(txn, botKey(userID, botID), b)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	return pkgerrors.Wrap(err, "update bot status")
}

func (s *Store) DeleteBot(_ context.Context, userID, botID string) error {
	err := s.update(func(txn *badger.Txn) error {
		key := []byte(botKey(userID, botID))
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	return pkgerrors.Wrap(err, "delete bot")
}

func (s *Store) CountBotsByOwner(_ context.Context, userID string) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(botPrefix(userID))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "count bots")
	}
	return n, nil
}
