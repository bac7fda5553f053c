package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/store/memstore"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err := New(memstore.New(), bcrypt.MinCost, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return s
}

func TestRegister_HashesPassword(t *testing.T) {
	s := newStore(t)
	u, err := s.Register(context.Background(), "a@x.com", "A", "pw123")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "pw123", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"))
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), u.CreatedAt)
}

func TestRegister_Duplicate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	first, err := s.Register(ctx, "a@x.com", "A", "pw1")
	require.NoError(t, err)

	_, err = s.Register(ctx, "a@x.com", "B", "pw2")
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	// 原账号不受影响
	got, err := s.Authenticate(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "A", got.Name)
}

func TestAuthenticate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u, err := s.Register(ctx, "a@x.com", "A", "pw123")
	require.NoError(t, err)

	got, err := s.Authenticate(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, wrongPw := s.Authenticate(ctx, "a@x.com", "nope")
	_, unknown := s.Authenticate(ctx, "b@x.com", "pw123")
	assert.ErrorIs(t, wrongPw, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPw, unknown)

	// email 大小写敏感
	_, err = s.Authenticate(ctx, "A@x.com", "pw123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegister_LongPassword(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	long := strings.Repeat("p", 80)
	u, err := s.Register(ctx, "long@x.com", "L", long)
	require.NoError(t, err)

	got, err := s.Authenticate(ctx, "long@x.com", long)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// bcrypt 只看前 72 字节
	_, err = s.Authenticate(ctx, "long@x.com", long[:72]+"zzzz")
	assert.NoError(t, err)
	_, err = s.Authenticate(ctx, "long@x.com", long[:71])
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLookup(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u, err := s.Register(ctx, "a@x.com", "A", "pw")
	require.NoError(t, err)

	got, err := s.Lookup(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = s.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Lookup(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
