package scan

import (
	"context"
	"time"

	"github.com/altpilot/altpilot/internal/application"
	"github.com/altpilot/altpilot/internal/data/cache"
	"github.com/altpilot/altpilot/internal/metrics"
	"github.com/altpilot/altpilot/internal/models"
)

// CandleSource supplies normalized OHLCV series, typically the exchange
// client.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.TimeframeSeries, error)
}

// Feeder assembles per-symbol SeriesSets through the cache. All blocking
// I/O happens here, before the core pipeline runs.
type Feeder struct {
	source  CandleSource
	cache   cache.Cache
	cfg     *application.Config
	ttl     time.Duration
	metrics *metrics.Registry
}

// NewFeeder builds a feeder. registry may be nil.
func NewFeeder(source CandleSource, c cache.Cache, cfg *application.Config, registry *metrics.Registry) *Feeder {
	return &Feeder{
		source:  source,
		cache:   c,
		cfg:     cfg,
		ttl:     time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		metrics: registry,
	}
}

// Load fetches all four timeframes for one symbol.
func (f *Feeder) Load(ctx context.Context, symbol string) (SeriesSet, error) {
	set := SeriesSet{Symbol: symbol}
	plan := []struct {
		tf    models.Timeframe
		limit int
		dst   *models.TimeframeSeries
	}{
		{models.TFDaily, f.cfg.Candles.BarsDaily, &set.Daily},
		{models.TF4H, f.cfg.Candles.Bars4H, &set.FourH},
		{models.TF1H, f.cfg.Candles.Bars1H, &set.OneH},
		{models.TF15M, f.cfg.Candles.Bars15M, &set.M15},
	}
	for _, p := range plan {
		series, err := f.load(ctx, symbol, p.tf, p.limit)
		if err != nil {
			return SeriesSet{}, err
		}
		*p.dst = series
	}
	return set, nil
}

// LoadBaseline fetches the shared reference-asset 4H series.
func (f *Feeder) LoadBaseline(ctx context.Context) (models.TimeframeSeries, error) {
	return f.load(ctx, f.cfg.Universe.BaselineSymbol, models.TF4H, f.cfg.Candles.Bars4H)
}

func (f *Feeder) load(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.TimeframeSeries, error) {
	if series, ok := f.cache.Get(ctx, symbol, tf); ok && series.Len() >= limit {
		return series, nil
	}
	series, err := f.source.FetchCandles(ctx, symbol, tf, limit)
	if err != nil {
		if f.metrics != nil {
			f.metrics.FetchErrors.WithLabelValues(string(tf)).Inc()
		}
		if models.IsUpstreamData(err) {
			return models.TimeframeSeries{}, err
		}
		return models.TimeframeSeries{}, &models.UpstreamDataError{
			Symbol: symbol, Timeframe: string(tf), Reason: err.Error(),
		}
	}
	f.cache.Set(ctx, series, f.ttl)
	return series, nil
}
