// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports controller exchange counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

const namespace = "midas"

// Collector turns exchanges into Prometheus series. It implements
// midas.Observer.
type Collector struct {
	exchanges *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	lastSeen  *prometheus.GaugeVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Command exchanges by node, command code and outcome.",
			},
			[]string{"node", "code", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exchange_duration_seconds",
				Help:      "Round trip time of answered exchanges.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"code"},
		),
		lastSeen: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "node_last_reply_timestamp_seconds",
				Help:      "Unix time of the last reply from each node.",
			},
			[]string{"node"},
		),
	}

	reg.MustRegister(c.exchanges, c.latency, c.lastSeen)
	return c
}

// Observe records one exchange.
func (c *Collector) Observe(e midas.Exchange) {
	node := e.Node.String()
	c.exchanges.WithLabelValues(node, e.Code, e.Outcome.String()).Inc()

	if e.Outcome == midas.OutcomeTransportFailure {
		return
	}
	c.latency.WithLabelValues(e.Code).Observe(e.Elapsed.Seconds())
	c.lastSeen.WithLabelValues(node).Set(float64(e.Time.Add(e.Elapsed).UnixNano()) / 1e9)
}

// Handler serves the metrics of gatherer and a /health probe.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("metrics server started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
