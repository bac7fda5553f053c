package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
)

var _ ports.Store = (*Store)(nil)

// Store keeps all three collections in process memory. Used by tests and the
// "memory" driver; contents are lost on exit.
type Store struct {
	mu sync.RWMutex

	users        map[string]domain.User
	usersByEmail map[string]string

	portfolios map[string]*domain.Portfolio // by user id

	bots     map[string]domain.Bot
	botOrder []string
}

func New() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		portfolios:   make(map[string]*domain.Portfolio),
		bots:         make(map[string]domain.Bot),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[u.Email]; ok {
		return domain.ErrDuplicateIdentity
	}
	s.users[u.ID] = *u
	s.usersByEmail[u.Email] = u.ID
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for id := range s.users {
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) InsertPortfolioIfAbsent(_ context.Context, p *domain.Portfolio) (*domain.Portfolio, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.portfolios[p.UserID]; ok {
		return existing.Clone(), false, nil
	}
	s.portfolios[p.UserID] = p.Clone()
	return p.Clone(), true, nil
}

func (s *Store) FindPortfolioByUser(_ context.Context, userID string) (*domain.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portfolios[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *Store) ReplacePortfolioValuation(_ context.Context, p *domain.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.portfolios[p.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	next := existing.Clone()
	next.Holdings = append([]domain.Holding(nil), p.Holdings...)
	next.TotalValue = p.TotalValue
	next.UpdatedAt = p.UpdatedAt
	s.portfolios[p.UserID] = next
	return nil
}

func (s *Store) InsertBot(_ context.Context, b *domain.Bot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots[b.ID] = cloneBot(*b)
	s.botOrder = append(s.botOrder, b.ID)
	return nil
}

func (s *Store) ListBotsByOwner(_ context.Context, userID string) ([]domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Bot
	for _, id := range s.botOrder {
		if b, ok := s.bots[id]; ok && b.UserID == userID {
			out = append(out, cloneBot(b))
		}
	}
	return out, nil
}

func (s *Store) UpdateBotStatus(_ context.Context, userID, botID string, status domain.BotStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bots[botID]
	if !ok || b.UserID != userID {
		return domain.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	s.bots[botID] = b
	return nil
}

func (s *Store) DeleteBot(_ context.Context, userID, botID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bots[botID]
	if !ok || b.UserID != userID {
		return domain.ErrNotFound
	}
	delete(s.bots, botID)
	for i, id := range s.botOrder {
		if id == botID {
			s.botOrder = append(s.botOrder[:i], s.botOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) CountBotsByOwner(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bots {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func cloneBot(b domain.Bot) domain.Bot {
	if b.Config != nil {
		cfg := make(domain.BotConfig, len(b.Config))
		for k, v := range b.Config {
			cfg[k] = v
		}
		b.Config = cfg
	}
	return b
}
