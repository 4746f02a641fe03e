package universe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altpilot/altpilot/internal/datasources/kucoin"
)

type stubTickers struct {
	tickers []kucoin.Ticker
	err     error
}

func (s stubTickers) AllTickers(context.Context) ([]kucoin.Ticker, error) {
	return s.tickers, s.err
}

func TestSelect_RanksByQuoteVolume(t *testing.T) {
	src := stubTickers{tickers: []kucoin.Ticker{
		{Symbol: "SOL-USDT", QuoteVolumeUSD: 5_000_000},
		{Symbol: "ETH-USDT", QuoteVolumeUSD: 40_000_000},
		{Symbol: "DOGE-USDT", QuoteVolumeUSD: 12_000_000},
	}}
	sel := NewSelector(src, "USDT", 10, nil)

	symbols, err := sel.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH-USDT", "DOGE-USDT", "SOL-USDT"}, symbols)
}

func TestSelect_FiltersQuoteAndZeroVolume(t *testing.T) {
	src := stubTickers{tickers: []kucoin.Ticker{
		{Symbol: "ETH-USDT", QuoteVolumeUSD: 40_000_000},
		{Symbol: "ETH-BTC", QuoteVolumeUSD: 9_000_000},
		{Symbol: "DEAD-USDT", QuoteVolumeUSD: 0},
	}}
	sel := NewSelector(src, "USDT", 10, nil)

	symbols, err := sel.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH-USDT"}, symbols)
}

func TestSelect_CapsAtTopN(t *testing.T) {
	src := stubTickers{tickers: []kucoin.Ticker{
		{Symbol: "AAA-USDT", QuoteVolumeUSD: 4},
		{Symbol: "BBB-USDT", QuoteVolumeUSD: 3},
		{Symbol: "CCC-USDT", QuoteVolumeUSD: 2},
		{Symbol: "DDD-USDT", QuoteVolumeUSD: 1},
	}}
	sel := NewSelector(src, "USDT", 2, nil)

	symbols, err := sel.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA-USDT", "BBB-USDT"}, symbols)
}

func TestSelect_TiesBreakBySymbol(t *testing.T) {
	src := stubTickers{tickers: []kucoin.Ticker{
		{Symbol: "ZZZ-USDT", QuoteVolumeUSD: 100},
		{Symbol: "AAA-USDT", QuoteVolumeUSD: 100},
	}}
	sel := NewSelector(src, "USDT", 10, nil)

	symbols, err := sel.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA-USDT", "ZZZ-USDT"}, symbols)
}

func TestSelect_FallbackOnDiscoveryFailure(t *testing.T) {
	src := stubTickers{err: errors.New("exchange down")}
	sel := NewSelector(src, "USDT", 2, []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"})

	symbols, err := sel.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USDT", "ETH-USDT"}, symbols, "fallback is capped too")
}

func TestSelect_FailureWithoutFallback(t *testing.T) {
	src := stubTickers{err: errors.New("exchange down")}
	sel := NewSelector(src, "USDT", 10, nil)

	_, err := sel.Select(context.Background())
	assert.Error(t, err)
}

func TestSelect_EmptyDiscoveryUsesFallback(t *testing.T) {
	src := stubTickers{tickers: []kucoin.Ticker{{Symbol: "ETH-BTC", QuoteVolumeUSD: 5}}}
	sel := NewSelector(src, "USDT", 10, []string{"BTC-USDT"})

	symbols, err := sel.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USDT"}, symbols)
}
