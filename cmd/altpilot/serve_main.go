package main

import (
	"github.com/spf13/cobra"

	"github.com/altpilot/altpilot/internal/application"
	httpserver "github.com/altpilot/altpilot/internal/interfaces/http"
	"github.com/altpilot/altpilot/internal/metrics"
)

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Serve.ListenAddr = addr
	}

	server := httpserver.NewServer(cfg.Serve.ListenAddr, cfg.Artifacts.OutputDir, metrics.NewRegistry())
	return server.ListenAndServe()
}
