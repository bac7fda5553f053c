package domain

import "time"

// BotType 机器人类型。开放字符串，这一层不校验。
type BotType string

const (
	BotTypeDCA    BotType = "dca"
	BotTypeGrid   BotType = "grid"
	BotTypeSignal BotType = "signal"
)

// Known 是否为已知类型
func (t BotType) Known() bool {
	switch t {
	case BotTypeDCA, BotTypeGrid, BotTypeSignal:
		return true
	}
	return false
}

// BotStatus 机器人状态。调用方传什么就存什么，没有状态转换约束。
type BotStatus string

const (
	BotStatusActive  BotStatus = "active"
	BotStatusPaused  BotStatus = "paused"
	BotStatusStopped BotStatus = "stopped"
)

// Known 是否为已知状态
func (s BotStatus) Known() bool {
	switch s {
	case BotStatusActive, BotStatusPaused, BotStatusStopped:
		return true
	}
	return false
}

// BotConfig 不透明的配置对象，形状取决于机器人类型
type BotConfig map[string]any

// Bot 交易机器人（只做记录，不交易）
type Bot struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Type      BotType   `json:"bot_type"`
	Pair      string    `json:"pair"`
	Status    BotStatus `json:"status"`
	Profit    float64   `json:"profit"`
	Config    BotConfig `json:"config"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
