// Package token issues and verifies HS256 bearer tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/domain"
)

// DefaultTTL 令牌默认有效期
const DefaultTTL = 7 * 24 * time.Hour

// Service 签发和校验 HS256 令牌，密钥在构造时注入
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New secret 不能为空；ttl <= 0 时使用 DefaultTTL
func New(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token: secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue returns a signed token for userID and its expiry. exp is encoded in
// whole seconds, so now is truncated first and the returned expiry is exactly
// the one Verify enforces. The token is rejected from that instant on.
func (s *Service) Issue(userID string) (string, time.Time, error) {
	now := s.now().Truncate(time.Second)
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Verify returns the subject of a valid token.
func (s *Service) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", domain.ErrExpiredToken
	case err != nil:
		return "", domain.ErrInvalidToken
	case claims.Subject == "":
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
