// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/luxfi/geth/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/dca-scheduler/log"
	"github.com/luxfi/dca-scheduler/metrics/gatherer"
	dcaprom "github.com/luxfi/dca-scheduler/metrics/prometheus"
)

// serveMetrics exposes core/dca's counters (registered into
// metrics.DefaultRegistry by core/dca/metrics.go) over HTTP for the
// life of the simulation run: /metrics is Prometheus-scrapeable,
// backed by metrics/prometheus.Gatherer the same way a real node would
// wire its exporter; /debug/metrics is a plain JSON dump backed by
// metrics/gatherer.Gatherer, for ad-hoc inspection without a Prometheus
// server on hand. boundAddr is the listener's actual address, useful
// when addr ends in ":0"; stop shuts the listener down.
func serveMetrics(addr string) (boundAddr string, stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(dcaprom.NewGatherer(metrics.DefaultRegistry()), promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/metrics", func(w http.ResponseWriter, r *http.Request) {
		mfs, err := gatherer.NewGatherer(metrics.DefaultRegistry()).Gather()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mfs)
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("dcasim: metrics server stopped", "err", err)
		}
	}()
	log.Info("dcasim: serving metrics", "addr", ln.Addr().String())

	return ln.Addr().String(), func() { _ = srv.Close() }, nil
}
