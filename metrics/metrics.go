// Package metrics exposes Prometheus metrics for the storage gateway on
// a sidecar listener, kept off the API port so scrapes never contend
// with storage traffic.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OperationsTotal counts storage operations through the gateway by
// operation, backend scheme and outcome status.
var OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "opendal",
	Name:      "storage_operations_total",
	Help:      "Storage operations processed, by operation, scheme and outcome.",
}, []string{"operation", "scheme", "outcome"})

// OperatorsLive tracks the number of live operator handles.
var OperatorsLive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "opendal",
	Name:      "operators_live",
	Help:      "Currently live operator handles.",
})

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name and listen
// address.
func New(name, listenAddr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name + " metrics: see /metrics\n"))
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving scrapes until Shutdown.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
