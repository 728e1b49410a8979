// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// dcasim drives the DCA scheduler through a run of simulated blocks
// against an in-memory ledger and a passthrough venue, for manual
// inspection of admission/execution/completion behavior.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/luxfi/dca-scheduler/cmd/dcasim/config"
	"github.com/luxfi/dca-scheduler/log"
)

const clientIdentifier = "dcasim"

var app = &cli.App{
	Name:    clientIdentifier,
	Usage:   "DCA scheduler block-driven simulator",
	Version: config.Version,
}

func init() {
	app.Action = run
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(*cli.Context) error {
	fs := config.BuildFlagSet()
	v, err := config.BuildViper(fs, os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("couldn't configure flags: %w", err)
	}

	if v.GetBool(config.VersionKey) {
		fmt.Println(config.Version)
		return nil
	}

	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, true)))

	cfg, err := config.BuildConfig(v)
	if err != nil {
		return fmt.Errorf("couldn't build config: %w", err)
	}

	if cfg.MetricsAddr != "" {
		_, stop, err := serveMetrics(cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("couldn't start metrics server: %w", err)
		}
		defer stop()
	}

	return runSimulation(cfg)
}
