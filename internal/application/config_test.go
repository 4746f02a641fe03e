package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "altpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "kucoin", cfg.Universe.ExchangeID)
	assert.Equal(t, "USDT", cfg.Universe.Quote)
	assert.Equal(t, 200, cfg.Universe.TopNByVolume)
	assert.Equal(t, "BTC-USDT", cfg.Universe.BaselineSymbol)
	assert.Equal(t, 60, cfg.Candles.MinHistory)
	assert.Equal(t, 36, cfg.Breakout.PRHMinLookback)
	assert.Equal(t, 60, cfg.Breakout.PRHMaxLookback)
	assert.InDelta(t, 1.6, cfg.Breakout.SurgeThreshold, 1e-9)
	assert.InDelta(t, 1.5, cfg.Risk.ATRMultipliers.Trending, 1e-9)
	assert.InDelta(t, 0.8, cfg.Risk.ATRMultipliers.Weak, 1e-9)
	assert.Equal(t, 10, cfg.Limits.MaxSignals)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, "docs", cfg.Artifacts.OutputDir)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
universe:
  quote: USDC
  top_n_by_volume: 50
breakout:
  volume_surge_threshold: 2.0
scan:
  workers: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "USDC", cfg.Universe.Quote)
	assert.Equal(t, 50, cfg.Universe.TopNByVolume)
	assert.InDelta(t, 2.0, cfg.Breakout.SurgeThreshold, 1e-9)
	assert.Equal(t, 4, cfg.Scan.Workers)
	// untouched sections keep their defaults
	assert.Equal(t, 36, cfg.Breakout.PRHMinLookback)
	assert.Equal(t, 180, cfg.Candles.BarsDaily)
}

func TestLoadConfig_ValidationRejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
breakout:
  volume_surge_threshold: 0.5
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadConfig_PRHWindowCrossCheck(t *testing.T) {
	path := writeConfig(t, `
breakout:
  prh_min_lookback: 60
  prh_max_lookback: 36
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prh_max_lookback")
}

func TestLoadConfig_VolumeWindowCrossCheck(t *testing.T) {
	path := writeConfig(t, `
features:
  volume_short_window: 30
  volume_long_window: 20
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volume_short_window")
}

func TestLoadConfig_VolatilityPercentileCrossCheck(t *testing.T) {
	path := writeConfig(t, `
features:
  vol_low_percentile: 0.7
  vol_high_percentile: 0.3
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vol_high_percentile")
}

func TestLoadConfig_PartialMultipliersKept(t *testing.T) {
	path := writeConfig(t, `
risk:
  atr_multipliers:
    trending: 2.0
    reclaiming: 1.4
    weak: 0.6
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, cfg.Risk.ATRMultipliers.Trending, 1e-9)
	assert.InDelta(t, 0.6, cfg.Risk.ATRMultipliers.Weak, 1e-9)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfig_NeverPanics(t *testing.T) {
	assert.NotPanics(t, func() { DefaultConfig() })
}
