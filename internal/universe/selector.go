// Package universe selects which symbols a scan run evaluates: every spot
// pair in the configured quote currency, ranked by 24h quote volume.
package universe

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/altpilot/altpilot/internal/datasources/kucoin"
)

// TickerSource supplies 24h market summaries.
type TickerSource interface {
	AllTickers(ctx context.Context) ([]kucoin.Ticker, error)
}

// Selector ranks the tradable universe.
type Selector struct {
	source   TickerSource
	quote    string
	topN     int
	fallback []string
}

// NewSelector builds a selector. fallback is used when ticker discovery
// fails or yields nothing, so a scheduled run still produces output.
func NewSelector(source TickerSource, quote string, topN int, fallback []string) *Selector {
	return &Selector{source: source, quote: quote, topN: topN, fallback: fallback}
}

// Select returns up to topN symbols ordered by descending quote volume,
// ties broken by symbol for determinism.
func (s *Selector) Select(ctx context.Context) ([]string, error) {
	tickers, err := s.source.AllTickers(ctx)
	if err != nil {
		if len(s.fallback) > 0 {
			log.Warn().Err(err).Msg("ticker discovery failed, using fallback universe")
			return s.capped(s.fallback), nil
		}
		return nil, err
	}

	suffix := "-" + s.quote
	ranked := make([]kucoin.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if strings.HasSuffix(t.Symbol, suffix) && t.QuoteVolumeUSD > 0 {
			ranked = append(ranked, t)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].QuoteVolumeUSD != ranked[j].QuoteVolumeUSD {
			return ranked[i].QuoteVolumeUSD > ranked[j].QuoteVolumeUSD
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	symbols := make([]string, 0, len(ranked))
	for _, t := range ranked {
		symbols = append(symbols, t.Symbol)
	}
	if len(symbols) == 0 {
		return s.capped(s.fallback), nil
	}
	return s.capped(symbols), nil
}

func (s *Selector) capped(symbols []string) []string {
	if len(symbols) > s.topN {
		return symbols[:s.topN]
	}
	return symbols
}
