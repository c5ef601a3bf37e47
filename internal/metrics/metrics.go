// Copyright 2024 The slimchain-go Authors
// This file is part of the slimchain-go library.
//
// The slimchain-go library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slimchain-go library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slimchain-go library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics wires the node's counters/gauges the way the teacher
// does (github.com/rcrowley/go-metrics's NewRegisteredCounter/Gauge
// against a shared registry, see work/worker.go's
// timeLimitReachedCounter/tooLongTxCounter pattern), and exports that
// registry to Prometheus via a small bridge onto
// github.com/prometheus/client_golang, since the teacher's own bridge
// (metrics/prometheus.NewPrometheusProvider) is part of its broader
// node/metrics subsystem this repo does not carry over wholesale.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/slimchain-go/slimchain/internal/log"
)

var logger = log.NewModuleLogger("metrics")

// Registry is the process-wide go-metrics registry every counter/gauge in
// this node registers itself against, mirroring the teacher's single
// package-level metrics.DefaultRegistry convention.
var Registry = gometrics.NewRegistry()

// Counter and Gauge are thin aliases so callers importing this package
// don't also need to import go-metrics directly.
type Counter = gometrics.Counter
type Gauge = gometrics.Gauge

// NewCounter registers and returns a named counter, e.g.
// metrics.NewCounter("propose/accepted_txs").
func NewCounter(name string) Counter {
	return gometrics.GetOrRegisterCounter(name, Registry)
}

// NewGauge registers and returns a named gauge, e.g.
// metrics.NewGauge("engine/in_flight").
func NewGauge(name string) Gauge {
	return gometrics.GetOrRegisterGauge(name, Registry)
}

// Named counters/gauges the propose, verify, and engine pipelines
// increment directly, avoiding a name-string typo at each call site.
var (
	ProposedBlocks   = NewCounter("propose/blocks_proposed")
	ProposedTxs      = NewCounter("propose/txs_accepted")
	DroppedTxs       = NewCounter("propose/txs_dropped")
	CommittedBlocks  = NewCounter("verify/blocks_committed")
	RejectedBlocks   = NewCounter("verify/blocks_rejected")
	EngineInFlight   = NewGauge("engine/in_flight")
	EngineQueued     = NewGauge("engine/queued")
)

// bridgeCollector adapts the go-metrics registry into a single
// prometheus.Collector: every go-metrics Counter/Gauge becomes a
// correspondingly-named Prometheus counter/gauge each time Prometheus
// scrapes, rather than requiring each metric to be registered twice.
type bridgeCollector struct {
	namespace string
}

func (b bridgeCollector) Describe(ch chan<- *prometheus.Desc) {
	// Dynamic per-scrape descriptors (below) make predeclaring impractical;
	// an unchecked collector is the documented escape hatch for this.
}

func (b bridgeCollector) Collect(ch chan<- prometheus.Metric) {
	Registry.Each(func(name string, i interface{}) {
		fqName := b.namespace + "_" + sanitize(name)
		desc := prometheus.NewDesc(fqName, name, nil, nil)
		switch m := i.(type) {
		case gometrics.Counter:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Count()))
		case gometrics.Gauge:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(m.Value()))
		}
	})
}

func sanitize(name string) string {
	b := []byte(name)
	for i, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			b[i] = '_'
		}
	}
	return string(b)
}

// ServeHTTP starts a background /metrics exporter on addr, bridging the
// go-metrics registry through Prometheus's text exposition format
// (cmd/kcn/main.go's "Start prometheus exporter" step, minus the
// teacher's own bridge package).
func ServeHTTP(addr string) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(bridgeCollector{namespace: "slimchain"})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics exporter listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics exporter stopped", "err", err)
		}
	}()
}
