// Package identity registers and authenticates users.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/pkg/id"
	"github.com/betbot/tradedesk/pkg/logger"
)

// maxPasswordBytes bcrypt 只使用前 72 字节
const maxPasswordBytes = 72

// Store 用户注册与登录，密码以 bcrypt 哈希保存
type Store struct {
	users     ports.UserRepository
	cost      int
	now       func() time.Time
	dummyHash []byte
}

// Option 配置 Store
type Option func(*Store)

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New cost <= 0 falls back to bcrypt.DefaultCost.
func New(users ports.UserRepository, cost int, opts ...Option) (*Store, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	s := &Store{users: users, cost: cost, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	// 未知邮箱也做一次等价代价的比较
	dummy, err := bcrypt.GenerateFromPassword([]byte("tradedesk-dummy-password"), cost)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "bcrypt dummy hash")
	}
	s.dummyHash = dummy
	return s, nil
}

// passwordBytes 超过 72 字节的密码按 bcrypt 的有效长度截断，注册和登录一致
func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Register 创建用户；邮箱已存在时返回 domain.ErrDuplicateIdentity
func (s *Store) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), s.cost)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "hash password")
	}
	u := &domain.User{
		ID:           id.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	logger.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Authenticate 校验邮箱和密码。邮箱不存在与密码错误返回同一个 domain.ErrInvalidCredentials
func (s *Store) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, passwordBytes(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), passwordBytes(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

// Lookup 按 id 取用户
func (s *Store) Lookup(ctx context.Context, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrNotFound
	}
	return s.users.FindUserByID(ctx, userID)
}
