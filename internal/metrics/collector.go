// Package metrics collects and exposes Prometheus metrics for the auth and
// presence subsystems.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services see; keeps them decoupled from Prometheus.
type Recorder interface {
	RecordSignIn(provider string)
	RecordRefresh(outcome string)
	RecordGeneration(duration time.Duration)
	SetOnlineUsers(count int)
}

type Collector struct {
	signIns     *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	generation  prometheus.Histogram
	onlineUsers prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devplanner_sign_ins_total",
			Help: "Successful sign-ins by provider.",
		}, []string{"provider"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devplanner_token_refreshes_total",
			Help: "Refresh attempts by outcome (success, unauthorized, error).",
		}, []string{"outcome"}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "devplanner_generation_duration_seconds",
			Help:    "Wall time of plan generation runs.",
			Buckets: prometheus.DefBuckets,
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "devplanner_online_users",
			Help: "Users currently connected to the presence channel.",
		}),
	}

	reg.MustRegister(c.signIns, c.refreshes, c.generation, c.onlineUsers)
	return c
}

func (c *Collector) RecordSignIn(provider string) {
	c.signIns.WithLabelValues(provider).Inc()
}

func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordGeneration(duration time.Duration) {
	c.generation.Observe(duration.Seconds())
}

func (c *Collector) SetOnlineUsers(count int) {
	c.onlineUsers.Set(float64(count))
}

// Handler returns the /metrics endpoint handler for the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
