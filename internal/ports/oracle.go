package ports

import (
	"context"

	"github.com/betbot/tradedesk/internal/domain"
)

type PriceOracle interface {
	// Quote prices the requested symbols. Symbols the oracle does not know are
	// simply missing from the result.
	Quote(ctx context.Context, symbols []string) (map[string]domain.Quote, error)
	// Symbols lists every symbol the oracle can price, in display order.
	Symbols() []string
}
