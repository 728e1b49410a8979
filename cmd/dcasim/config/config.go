// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config builds the dcasim CLI's flag/config pipeline, the same
// pflag+viper shape cmd/simulator/main/main.go drives.
package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const Version = "dcasim/0.1.0"

// Flag keys, mirroring cmd/simulator's *Key naming convention.
const (
	VersionKey      = "version"
	LogLevelKey     = "log-level"
	ScheduleCountKey = "schedules"
	BlockCountKey   = "blocks"
	PeriodKey       = "period"
	SeedKey         = "seed"
	MetricsAddrKey  = "metrics-addr"
)

// Config is the fully-resolved simulator configuration.
type Config struct {
	LogLevel      string
	ScheduleCount int
	BlockCount    uint64
	Period        uint64
	Seed          int64
	MetricsAddr   string
}

// BuildFlagSet declares every flag dcasim accepts.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("dcasim", pflag.ContinueOnError)
	fs.Bool(VersionKey, false, "print version and exit")
	fs.String(LogLevelKey, "info", "log level: trace|debug|info|warn|error|crit")
	fs.Int(ScheduleCountKey, 10, "number of schedules to admit")
	fs.Uint64(BlockCountKey, 50, "number of blocks to simulate")
	fs.Uint64(PeriodKey, 4, "block period between a schedule's executions")
	fs.Int64(SeedKey, int64(time.Now().UnixNano()%1_000_000), "deterministic beacon seed")
	fs.String(MetricsAddrKey, "", "address to serve /metrics and /debug/metrics on (disabled if empty)")
	return fs
}

// BuildViper parses args against fs and layers in DCASIM_-prefixed
// environment variables, mirroring config.BuildViper's precedence.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix("DCASIM")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// BuildConfig resolves a Config from a populated viper instance.
func BuildConfig(v *viper.Viper) (Config, error) {
	return Config{
		LogLevel:      v.GetString(LogLevelKey),
		ScheduleCount: v.GetInt(ScheduleCountKey),
		BlockCount:    v.GetUint64(BlockCountKey),
		Period:        v.GetUint64(PeriodKey),
		Seed:          v.GetInt64(SeedKey),
		MetricsAddr:   v.GetString(MetricsAddrKey),
	}, nil
}
