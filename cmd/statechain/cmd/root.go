// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/utxostate/config"
	"github.com/ava-labs/utxostate/ledger"
	"github.com/ava-labs/utxostate/storage"
)

const (
	ledgerNamespace  = "ledger"
	storageNamespace = "storage"
)

type statechain struct {
	logLevel   string
	configPath string
	dataDir    string

	cfg        *config.Config
	log        logging.Logger
	logFactory *logFactory
	gatherer   metrics.MultiGatherer
	ledger     *ledger.Ledger
	closers    []func() error
}

func NewRootCmd() *cobra.Command {
	s := &statechain{}
	cmd := &cobra.Command{
		Use:   "statechain",
		Short: "UTXO contract state chain driver",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cobra.EnablePrefixMatching = true
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.DisableAutoGenTag = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "log level (overrides config)")
	cmd.PersistentFlags().StringVar(&s.configPath, "config", "", "path to a JSON config file")
	cmd.PersistentFlags().StringVar(&s.dataDir, "data-dir", "", "directory of the on-disk UTXO set (memory if empty)")

	cmd.AddCommand(
		newKeyCmd(),
		newRunCmd(s),
	)
	return cmd
}

// Init loads the config and opens the logger and ledger. Flags override the
// config file.
func (s *statechain) Init() error {
	var b []byte
	if len(s.configPath) > 0 {
		var err error
		b, err = os.ReadFile(s.configPath)
		if err != nil {
			return err
		}
	}
	cfg, err := config.New(b)
	if err != nil {
		return err
	}
	if len(s.logLevel) > 0 {
		cfg.LogLevel, err = logging.ToLevel(s.logLevel)
		if err != nil {
			return err
		}
		cfg.LogDisplayLevel = cfg.LogLevel
	}
	if len(s.dataDir) > 0 {
		cfg.DataDir = s.dataDir
	}
	s.cfg = cfg

	loggingConfig := logging.Config{}
	loggingConfig.Directory = cfg.GetLogDir()
	loggingConfig.LogLevel = cfg.GetLogLevel()
	loggingConfig.DisplayLevel = cfg.GetLogDisplayLevel()
	loggingConfig.LogFormat = logging.JSON
	s.logFactory = newLogFactory(loggingConfig)
	s.log, err = s.logFactory.Make("statechain")
	if err != nil {
		s.logFactory.Close()
		return err
	}

	s.gatherer = metrics.NewPrefixGatherer()
	var db ledger.Database
	if len(cfg.GetDataDir()) == 0 {
		db = memdb.New()
	} else {
		pdb, err := storage.New(cfg.GetPebbleConfig(), cfg.GetDataDir(), storageNamespace, s.gatherer)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, pdb.Close)
		db = pdb
	}

	registry := prometheus.NewRegistry()
	if err := s.gatherer.Register(ledgerNamespace, registry); err != nil {
		return err
	}
	s.ledger, err = ledger.New(s.log, db, ledger.Config{
		ChainTime: cfg.GetChainTime(),
		Namespace: cfg.GetMetricsNamespace(),
	}, registry)
	if err != nil {
		return err
	}

	s.log.Info("statechain initialized",
		zap.Stringer("logLevel", cfg.GetLogLevel()),
		zap.String("dataDir", cfg.GetDataDir()),
		zap.Uint64("chainTime", cfg.GetChainTime()),
		zap.Uint64("height", s.ledger.Height()),
	)
	return nil
}

// Close flushes metrics to the log and releases the database.
func (s *statechain) Close() {
	if s.log != nil && s.gatherer != nil {
		families, err := s.gatherer.Gather()
		if err != nil {
			s.log.Warn("failed to gather metrics", zap.Error(err))
		}
		for _, family := range families {
			for _, m := range family.GetMetric() {
				switch {
				case m.GetCounter() != nil:
					s.log.Debug("metric", zap.String("name", family.GetName()), zap.Float64("value", m.GetCounter().GetValue()))
				case m.GetGauge() != nil:
					s.log.Debug("metric", zap.String("name", family.GetName()), zap.Float64("value", m.GetGauge().GetValue()))
				}
			}
		}
	}
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close database: %s\n", err)
		}
	}
	if s.logFactory != nil {
		s.logFactory.Close()
	}
}
