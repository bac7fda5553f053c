// Package auth resolves a bearer token to the calling user.
package auth

import (
	"context"
	"strings"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/pkg/logger"
)

// TokenVerifier 令牌到用户 id
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

type UserLookup interface {
	Lookup(ctx context.Context, userID string) (*domain.User, error)
}

// Guard 把 bearer 令牌解析为当前用户
type Guard struct {
	tokens TokenVerifier
	users  UserLookup
}

func NewGuard(tokens TokenVerifier, users UserLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Resolve accepts the raw token or a full "Bearer <token>" header value.
// Every failure is reported as domain.ErrUnauthenticated.
func (g *Guard) Resolve(ctx context.Context, bearer string) (*domain.User, error) {
	raw := strings.TrimSpace(bearer)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}
	userID, err := g.tokens.Verify(raw)
	if err != nil {
		logger.Debugf("auth: token rejected: %v", err)
		return nil, domain.ErrUnauthenticated
	}
	u, err := g.users.Lookup(ctx, userID)
	if err != nil {
		logger.Debugf("auth: user %s not resolved: %v", userID, err)
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}
