package domain

import "time"

// Holding 持仓（只存在于 Portfolio 内部，以 symbol 区分）
type Holding struct {
	Symbol    string  `json:"symbol"`
	Amount    float64 `json:"amount"`
	Price     float64 `json:"price"`
	Value     float64 `json:"value"` // Amount * Price
	Change24h float64 `json:"change_24h"`
}

// Portfolio 用户的资产组合，每个用户最多一个
type Portfolio struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Exchange   string    `json:"exchange"`
	TotalValue float64   `json:"total_value"`
	Holdings   []Holding `json:"holdings"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SumValues 按顺序累加持仓价值
func SumValues(holdings []Holding) float64 {
	var total float64
	for _, h := range holdings {
		total += h.Value
	}
	return total
}

// Clone 深拷贝（holdings 切片不共享）
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Holdings = append([]Holding(nil), p.Holdings...)
	return &cp
}
