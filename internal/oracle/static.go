package oracle

import (
	"context"
	"sort"
	"strings"

	"github.com/betbot/tradedesk/internal/domain"
)

// Static serves a fixed quote table.
type Static struct {
	quotes map[string]domain.Quote
	order  []string
}

func NewStatic(quotes map[string]domain.Quote) *Static {
	s := &Static{quotes: make(map[string]domain.Quote, len(quotes))}
	for sym, q := range quotes {
		sym = strings.ToUpper(sym)
		s.quotes[sym] = q
		s.order = append(s.order, sym)
	}
	sort.Strings(s.order)
	return s
}

// Prices builds a Static oracle with zero change24h.
func Prices(prices map[string]float64) *Static {
	quotes := make(map[string]domain.Quote, len(prices))
	for sym, p := range prices {
		quotes[sym] = domain.Quote{Price: p}
	}
	return NewStatic(quotes)
}

func (s *Static) Symbols() []string { return append([]string(nil), s.order...) }

func (s *Static) Quote(_ context.Context, symbols []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		if q, ok := s.quotes[sym]; ok {
			out[sym] = q
		}
	}
	return out, nil
}
