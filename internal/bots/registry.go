// Package bots manages ownership-scoped trading bot records.
package bots

import (
	"context"
	"math/rand"
	"time"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/pkg/id"
	"github.com/betbot/tradedesk/pkg/logger"
)

// ProfitSeeder yields the profit a newly created bot starts with.
type ProfitSeeder interface {
	Initial() float64
}

// ZeroProfit starts every bot at 0.
type ZeroProfit struct{}

func (ZeroProfit) Initial() float64 { return 0 }

// RandomProfit draws uniformly from [Min, Max). Demo only.
type RandomProfit struct {
	Min, Max float64
}

func (p RandomProfit) Initial() float64 { return p.Min + rand.Float64()*(p.Max-p.Min) }

// NewBot carries the caller-supplied fields of a bot.
type NewBot struct {
	Name   string
	Type   domain.BotType
	Pair   string
	Config domain.BotConfig
}

// Registry 机器人的增删改查，所有操作都按 (userID, botID) 限定归属
type Registry struct {
	bots   ports.BotRepository
	users  ports.UserRepository
	profit ProfitSeeder
	now    func() time.Time
}

// Option 配置 Registry
type Option func(*Registry)

// WithProfitSeeder 替换新建机器人的初始收益来源，默认 ZeroProfit
func WithProfitSeeder(p ProfitSeeder) Option { return func(r *Registry) { r.profit = p } }

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// NewRegistry users 用于 SeedDemo 遍历用户
func NewRegistry(bots ports.BotRepository, users ports.UserRepository, opts ...Option) *Registry {
	r := &Registry{bots: bots, users: users, profit: ZeroProfit{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List 返回用户的全部机器人，按创建顺序；没有时返回空切片而不是 nil
func (r *Registry) List(ctx context.Context, userID string) ([]domain.Bot, error) {
	list, err := r.bots.ListBotsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Bot{}
	}
	return list, nil
}

// Create 新建机器人，状态为 active，初始收益来自 ProfitSeeder
func (r *Registry) Create(ctx context.Context, userID string, nb NewBot) (*domain.Bot, error) {
	now := r.now().UTC()
	cfg := nb.Config
	if cfg == nil {
		cfg = domain.BotConfig{}
	}
	b := &domain.Bot{
		ID:        id.NewSortable(),
		UserID:    userID,
		Name:      nb.Name,
		Type:      nb.Type,
		Pair:      nb.Pair,
		Status:    domain.BotStatusActive,
		Profit:    r.profit.Initial(),
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.bots.InsertBot(ctx, b); err != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{"user_id": userID, "bot_id": b.ID, "type": b.Type}).Info("bot created")
	return b, nil
}

// SetStatus stores status verbatim; there is no transition check.
func (r *Registry) SetStatus(ctx context.Context, userID, botID string, status domain.BotStatus) error {
	return r.bots.UpdateBotStatus(ctx, userID, botID, status, r.now().UTC())
}

// Delete 删除用户名下的机器人；不属于该用户时返回 domain.ErrNotFound
func (r *Registry) Delete(ctx context.Context, userID, botID string) error {
	return r.bots.DeleteBot(ctx, userID, botID)
}
