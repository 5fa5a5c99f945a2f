// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/utxostate/pebble"
)

const (
	defaultLogDir           = "logs"
	defaultMetricsNamespace = "utxostate"
)

var ErrInvalidWorkers = errors.New("verify workers must be positive")

type Config struct {
	// Logging
	LogLevel        logging.Level `json:"logLevel"`
	LogDisplayLevel logging.Level `json:"logDisplayLevel"`
	LogDir          string        `json:"logDir"`

	// Ledger
	Fee       uint64 `json:"fee"`
	ChainTime uint64 `json:"chainTime"`

	// Storage. An empty [DataDir] keeps the UTXO set in memory.
	DataDir string        `json:"dataDir"`
	Pebble  pebble.Config `json:"pebble"`

	// Misc
	VerifyWorkers    int    `json:"verifyWorkers"`
	MetricsNamespace string `json:"metricsNamespace"`

	loaded bool
}

func New(b []byte) (*Config, error) {
	c := &Config{}
	c.setDefault()
	if len(b) > 0 {
		if err := json.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", string(b), err)
		}
		c.loaded = true
	}
	if c.VerifyWorkers <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, c.VerifyWorkers)
	}
	return c, nil
}

func (c *Config) setDefault() {
	c.LogLevel = logging.Info
	c.LogDisplayLevel = logging.Info
	c.LogDir = defaultLogDir
	c.Pebble = pebble.NewDefaultConfig()
	c.VerifyWorkers = runtime.NumCPU()
	c.MetricsNamespace = defaultMetricsNamespace
}

func (c *Config) GetLogLevel() logging.Level        { return c.LogLevel }
func (c *Config) GetLogDisplayLevel() logging.Level { return c.LogDisplayLevel }
func (c *Config) GetLogDir() string                 { return c.LogDir }
func (c *Config) GetFee() uint64                    { return c.Fee }
func (c *Config) GetChainTime() uint64              { return c.ChainTime }
func (c *Config) GetDataDir() string                { return c.DataDir }
func (c *Config) GetPebbleConfig() pebble.Config    { return c.Pebble }
func (c *Config) GetVerifyWorkers() int             { return c.VerifyWorkers }
func (c *Config) GetMetricsNamespace() string       { return c.MetricsNamespace }
func (c *Config) Loaded() bool                      { return c.loaded }
