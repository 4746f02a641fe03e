package application

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/altpilot/altpilot/internal/domain/risk"
)

// Config is the single immutable configuration value threaded through every
// component call. It is never mutated after Load; concurrent per-symbol
// evaluation reads it freely.
type Config struct {
	Universe  UniverseConfig  `yaml:"universe"`
	Candles   CandlesConfig   `yaml:"candles"`
	Regime    RegimeConfig    `yaml:"regime"`
	Breakout  BreakoutConfig  `yaml:"breakout"`
	Risk      RiskConfig      `yaml:"risk"`
	Diverge   DivergeConfig   `yaml:"divergence"`
	Features  FeaturesConfig  `yaml:"features"`
	Limits    LimitsConfig    `yaml:"limits"`
	Scan      ScanConfig      `yaml:"scan"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Serve     ServeConfig     `yaml:"serve"`
}

type UniverseConfig struct {
	ExchangeID      string   `yaml:"exchange_id" default:"kucoin"`
	Quote           string   `yaml:"quote" default:"USDT"`
	TopNByVolume    int      `yaml:"top_n_by_volume" default:"200" validate:"gt=0"`
	BaselineSymbol  string   `yaml:"baseline_symbol" default:"BTC-USDT"`
	FallbackSymbols []string `yaml:"fallback_symbols"`
}

type CandlesConfig struct {
	BarsDaily  int `yaml:"bars_daily" default:"180" validate:"gte=60"`
	Bars4H     int `yaml:"bars_4h" default:"150" validate:"gte=60"`
	Bars1H     int `yaml:"bars_1h" default:"150" validate:"gte=60"`
	Bars15M    int `yaml:"bars_15m" default:"150" validate:"gte=40"`
	MinHistory int `yaml:"min_history" default:"60" validate:"gt=0"`
}

type RegimeConfig struct {
	DonchianLookback int     `yaml:"donchian_lookback" default:"20" validate:"gt=0"`
	SlopeWindow      int     `yaml:"slope_window" default:"5" validate:"gt=0"`
	MinTrendStrength float64 `yaml:"min_trend_strength" default:"0.001" validate:"gt=0"`
	RSLookback       int     `yaml:"rs_lookback_4h" default:"18" validate:"gt=0"`
}

type BreakoutConfig struct {
	PRHMinLookback   int     `yaml:"prh_min_lookback" default:"36" validate:"gt=0"`
	PRHMaxLookback   int     `yaml:"prh_max_lookback" default:"60" validate:"gt=0"`
	ConfirmationBars int     `yaml:"confirmation_bars" default:"2" validate:"gt=0"`
	RetestBps        float64 `yaml:"retest_bps" default:"20" validate:"gt=0"`
	SurgeThreshold   float64 `yaml:"volume_surge_threshold" default:"1.6" validate:"gt=1"`
	SurgeLookback    int     `yaml:"volume_surge_lookback" default:"3" validate:"gt=0"`
}

type RiskConfig struct {
	SwingLookback  int              `yaml:"swing_lookback" default:"8" validate:"gt=0"`
	ATRMultipliers risk.Multipliers `yaml:"atr_multipliers"`
}

type DivergeConfig struct {
	Lookback         int     `yaml:"lookback" default:"30" validate:"gte=4"`
	MinRSIDelta      float64 `yaml:"min_rsi_delta" default:"2" validate:"gt=0"`
	Penalty          float64 `yaml:"penalty" default:"15" validate:"gte=0"`
	OverrideStrength float64 `yaml:"override_strength" default:"0.8" validate:"gte=0,lte=1"`
}

type FeaturesConfig struct {
	MomentumLookback    int     `yaml:"momentum_lookback" default:"20" validate:"gt=0"`
	VolumeShortWindow   int     `yaml:"volume_short_window" default:"5" validate:"gt=0"`
	VolumeLongWindow    int     `yaml:"volume_long_window" default:"20" validate:"gt=0"`
	CorrelationLookback int     `yaml:"correlation_lookback" default:"20" validate:"gt=1"`
	VolLowPercentile    float64 `yaml:"vol_low_percentile" default:"0.33" validate:"gt=0,lt=1"`
	VolHighPercentile   float64 `yaml:"vol_high_percentile" default:"0.66" validate:"gt=0,lt=1"`
}

type LimitsConfig struct {
	MaxSignals int     `yaml:"max_signals" default:"10" validate:"gt=0"`
	MaxWatch   int     `yaml:"max_watch" default:"20" validate:"gt=0"`
	NearPRHPct float64 `yaml:"near_prh_pct" default:"0.02" validate:"gt=0"`
	// WeakRSDecile is the relative-strength quantile a weak-regime symbol
	// must reach to stay on the watch list.
	WeakRSDecile float64 `yaml:"weak_rs_decile" default:"0.9" validate:"gt=0,lt=1"`
}

type ScanConfig struct {
	Workers int `yaml:"workers" default:"8" validate:"gt=0"`
}

type CacheConfig struct {
	RedisAddr  string `yaml:"redis_addr"`
	TTLSeconds int    `yaml:"ttl_seconds" default:"300" validate:"gte=0"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type ArtifactsConfig struct {
	OutputDir string `yaml:"output_dir" default:"docs"`
}

type ServeConfig struct {
	ListenAddr string `yaml:"listen_addr" default:":8099"`
}

// LoadConfig reads, defaults, and validates the pipeline configuration.
// Validation failures are fatal and happen before any per-symbol
// evaluation begins.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if cfg.Risk.ATRMultipliers == (risk.Multipliers{}) {
		cfg.Risk.ATRMultipliers = risk.Multipliers{Trending: 1.5, Reclaiming: 1.2, Weak: 0.8}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.Breakout.PRHMaxLookback < cfg.Breakout.PRHMinLookback {
		return nil, fmt.Errorf("validate config: prh_max_lookback %d below prh_min_lookback %d",
			cfg.Breakout.PRHMaxLookback, cfg.Breakout.PRHMinLookback)
	}
	if cfg.Features.VolumeShortWindow > cfg.Features.VolumeLongWindow {
		return nil, fmt.Errorf("validate config: volume_short_window %d above volume_long_window %d",
			cfg.Features.VolumeShortWindow, cfg.Features.VolumeLongWindow)
	}
	if cfg.Features.VolHighPercentile <= cfg.Features.VolLowPercentile {
		return nil, fmt.Errorf("validate config: vol_high_percentile %.2f not above vol_low_percentile %.2f",
			cfg.Features.VolHighPercentile, cfg.Features.VolLowPercentile)
	}
	return cfg, nil
}

// DefaultConfig returns the built-in configuration, the one a missing
// config file falls back to.
func DefaultConfig() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(err) // defaults must always validate
	}
	return cfg
}
