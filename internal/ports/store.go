package ports

import (
	"context"
	"time"

	"github.com/betbot/tradedesk/internal/domain"
)

// Repository capabilities shared by the service layer. Every implementation
// must give single-document atomicity; none of them needs transactions.

type UserRepository interface {
	// InsertUser fails with domain.ErrDuplicateIdentity when the email is taken.
	InsertUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

type PortfolioRepository interface {
	// InsertPortfolioIfAbsent stores p unless the owner already has a
	// portfolio. It returns the stored document and whether p was inserted.
	InsertPortfolioIfAbsent(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, bool, error)
	FindPortfolioByUser(ctx context.Context, userID string) (*domain.Portfolio, error)
	// ReplacePortfolioValuation overwrites holdings, total and timestamp of
	// the owner's portfolio in one write.
	ReplacePortfolioValuation(ctx context.Context, p *domain.Portfolio) error
}

type BotRepository interface {
	InsertBot(ctx context.Context, b *domain.Bot) error
	// ListBotsByOwner returns bots in insertion order.
	ListBotsByOwner(ctx context.Context, userID string) ([]domain.Bot, error)
	// UpdateBotStatus and DeleteBot match on both ids; a miss is domain.ErrNotFound.
	UpdateBotStatus(ctx context.Context, userID, botID string, status domain.BotStatus, at time.Time) error
	DeleteBot(ctx context.Context, userID, botID string) error
	CountBotsByOwner(ctx context.Context, userID string) (int, error)
}

// Store is a document store holding the users, portfolios and bots collections.
type Store interface {
	UserRepository
	PortfolioRepository
	BotRepository
	Close() error
}
