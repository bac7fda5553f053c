package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/identity"
	"github.com/betbot/tradedesk/internal/store/memstore"
	"github.com/betbot/tradedesk/internal/token"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ids, err := identity.New(memstore.New(), bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := token.New("s3cret", time.Hour, token.WithClock(clock))
	require.NoError(t, err)
	g := NewGuard(tokens, ids)

	u, err := ids.Register(ctx, "a@x.com", "A", "pw")
	require.NoError(t, err)
	tok, _, err := tokens.Issue(u.ID)
	require.NoError(t, err)

	got, err := g.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = g.Resolve(ctx, "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	ghost, _, err := tokens.Issue("no-such-user")
	require.NoError(t, err)

	for name, bearer := range map[string]string{
		"empty":        "",
		"bearer only":  "Bearer ",
		"garbage":      "Bearer nope",
		"missing user": ghost,
	} {
		_, err := g.Resolve(ctx, bearer)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, name)
	}

	now = now.Add(2 * time.Hour)
	_, err = g.Resolve(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
