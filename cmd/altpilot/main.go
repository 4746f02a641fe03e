package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "altpilot"
	version = "v1.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Spot breakout scanner: ranked signals with structural stops",
		Version: version,
		Long: `altpilot scans a spot universe for high-probability breakout setups.

Each run classifies every symbol's regime, validates breakouts on 15m
closes, derives a structural stop, scores confidence 0-100, and writes
signals.json / watch.json / status.json for downstream consumers.`,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one full universe scan and write artifacts",
		RunE:  runScan,
	}
	scanCmd.Flags().String("config", "", "Path to YAML config (built-in defaults when empty)")
	scanCmd.Flags().String("output", "", "Artifact output directory override")
	scanCmd.Flags().Int("max-symbols", 0, "Cap the universe size (0 = config value)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics, health, and the latest status artifact",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "", "Path to YAML config")
	serveCmd.Flags().String("addr", "", "Listen address override")

	rootCmd.AddCommand(scanCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
