// Package config defines service configuration structures and loading.
//
// Conventions follow the rest of the codebase: defaults first, then an
// optional YAML file, then environment variables; sentinel errors for
// callers to branch on.
package config

import (
	"math/big"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir is the root directory for the persisted collections.
	DataDir string `koanf:"data_dir"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RewardPool is the per-period pool in token units, decimal form.
	RewardPool string `koanf:"reward_pool"`

	// RewardPoolCap bounds the pool accepted per window. Empty means
	// unbounded.
	RewardPoolCap string `koanf:"reward_pool_cap"`

	// DistributionIntervalMin is the scheduled distribution window
	// length in minutes. Zero disables the schedule.
	DistributionIntervalMin int `koanf:"distribution_interval_min"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		DataDir:                 "data",
		MaxLeaderboardLimit:     100,
		RewardPool:              "1000000",
		RewardPoolCap:           "",
		DistributionIntervalMin: 1440,
	}
}

// DistributionInterval returns the schedule interval as a duration.
func (c *Config) DistributionInterval() time.Duration {
	return time.Duration(c.DistributionIntervalMin) * time.Minute
}

// PoolAmount parses the per-period reward pool.
func (c *Config) PoolAmount() (*big.Int, error) {
	return parseAmount(c.RewardPool)
}

// PoolCap parses the pool cap. Nil means unbounded.
func (c *Config) PoolCap() (*big.Int, error) {
	if c.RewardPoolCap == "" {
		return nil, nil
	}
	return parseAmount(c.RewardPoolCap)
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return amount, nil
}
