package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:   "check-config",
		Usage:  "Validate a config file and print the resolved values",
		Action: checkAction,
	}
}

func checkAction(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return cli.Exit("--config is required", 2)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid: %v", err), 1)
	}

	fmt.Printf("✓ %s\n", path)
	fmt.Printf("  runtime: tick=%s scale=%g editor=%t paused=%t history=%d\n",
		cfg.Runtime.TickInterval, cfg.Runtime.TimeScale, cfg.Runtime.EditorMode,
		cfg.EffectivePaused(), cfg.Runtime.HistorySize)
	fmt.Printf("  logging: level=%s format=%s\n", cfg.Logging.Level, cfg.Logging.Format)
	fmt.Printf("  metrics: enabled=%t listen=%s namespace=%s poll=%s\n",
		cfg.Metrics.Enabled, cfg.Metrics.Listen, cfg.Metrics.Namespace, cfg.Metrics.PollInterval)
	return nil
}
