// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Prometheus instrumentation, an ambient addition not named by spec.md's
// Non-goals (SPEC_FULL.md §B): a connections gauge and a requests-served
// counter, wired through the connection setup/teardown hooks the same
// way gorox exposes its own runtime counters through its web UI, but
// backed by github.com/prometheus/client_golang instead of a hand-rolled
// stats struct.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flinthttp/flint/httpcore/server"
)

// Collector holds the counters/gauges one Server instance reports.
// Register it with a prometheus.Registerer, then wire its hooks into a
// Builder.
type Collector struct {
	openConnections prometheus.Gauge
	requestsServed  prometheus.Counter
	connectionsDone prometheus.Counter
}

// New builds a Collector and registers its metrics under reg (pass
// prometheus.DefaultRegisterer for the global registry).
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		openConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "httpcore",
			Name:      "open_connections",
			Help:      "Number of currently accepted connections being served.",
		}),
		requestsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Name:      "requests_served_total",
			Help:      "Total number of request/response cycles completed.",
		}),
		connectionsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Name:      "connections_closed_total",
			Help:      "Total number of connections that finished serving.",
		}),
	}
	reg.MustRegister(c.openConnections, c.requestsServed, c.connectionsDone)
	return c
}

// SetupHook increments the open-connections gauge on every accepted
// connection; install with Builder.ConnectionSetupHook.
func (c *Collector) SetupHook(_ *server.Connection) server.ConnectionSetupResult {
	c.openConnections.Inc()
	return server.Proceed
}

// TeardownHook decrements the gauge and records the connection's final
// request index as requests served; install with Builder.TeardownHook.
func (c *Collector) TeardownHook(conn *server.Connection, _ error) {
	c.openConnections.Dec()
	c.connectionsDone.Inc()
	c.requestsServed.Add(float64(conn.Index()))
}
