// Package metrics defines the Prometheus collectors for the service. Every
// collector set is registered on an explicit registry.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pscheid92/moodpulse/internal/platform/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "moodpulse"

	scrapeTimeout        = 10 * time.Second
	maxConcurrentScrapes = 4
)

// NewRegistry creates a registry carrying the runtime and process collectors
// plus a constant build_info series labelled with the running build.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		newBuildInfo(version.Get()),
	)
	return reg
}

func newBuildInfo(info version.Info) prometheus.Collector {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build metadata of the running binary; the value is always 1.",
		ConstLabels: prometheus.Labels{
			"version":    info.Version,
			"commit":     info.Commit,
			"go_version": info.GoVersion,
		},
	})
	g.Set(1)
	return g
}

// Handler serves the registry. A failing collector is logged and skipped
// instead of failing the whole scrape.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:            reg,
		ErrorLog:            scrapeErrorLog{},
		ErrorHandling:       promhttp.ContinueOnError,
		Timeout:             scrapeTimeout,
		MaxRequestsInFlight: maxConcurrentScrapes,
	})
}

type scrapeErrorLog struct{}

func (scrapeErrorLog) Println(v ...any) {
	slog.Warn("Metrics scrape error", "error", v)
}
