// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	accepted     prometheus.Counter
	rejected     prometheus.Counter
	doubleSpends prometheus.Counter
	utxos        prometheus.Gauge
}

func newMetrics(namespace string, r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accepted_txs",
			Help:      "number of confirmed transactions",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_txs",
			Help:      "number of rejected transactions",
		}),
		doubleSpends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "double_spends",
			Help:      "number of transactions spending a missing or spent output",
		}),
		utxos: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "utxos",
			Help:      "number of outputs created less outputs spent since start",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.accepted),
		r.Register(m.rejected),
		r.Register(m.doubleSpends),
		r.Register(m.utxos),
	)
	return m, errs.Err
}
