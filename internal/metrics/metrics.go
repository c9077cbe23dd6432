// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's collectors. A nil *Registry is a no-op.
type Registry struct {
	reg           *prometheus.Registry
	SyncTotal     *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	TokenRequests *prometheus.CounterVec
	LockContended *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	syncTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crmsync_sync_total",
		Help: "Synchronisation attempts by entity type and outcome.",
	}, []string{"entity_type", "status"})

	callDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crmsync_salesforce_call_duration_seconds",
		Help:    "Latency of authenticated CRM calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	tokenRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crmsync_salesforce_token_requests_total",
		Help: "OAuth token acquisitions by source and outcome.",
	}, []string{"source", "outcome"})

	lockContended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crmsync_sync_lock_contended_total",
		Help: "Sync attempts rejected because the entity lock was held.",
	}, []string{"entity_type"})

	r.MustRegister(syncTotal, callDuration, tokenRequests, lockContended)
	return &Registry{
		reg:           r,
		SyncTotal:     syncTotal,
		CallDuration:  callDuration,
		TokenRequests: tokenRequests,
		LockContended: lockContended,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) ObserveSync(entityType, status string) {
	if r == nil {
		return
	}
	r.SyncTotal.WithLabelValues(entityType, status).Inc()
}

func (r *Registry) ObserveCall(endpoint, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.CallDuration.WithLabelValues(endpoint, outcome).Observe(d.Seconds())
}

func (r *Registry) ObserveToken(source, outcome string) {
	if r == nil {
		return
	}
	r.TokenRequests.WithLabelValues(source, outcome).Inc()
}

func (r *Registry) ObserveLockContended(entityType string) {
	if r == nil {
		return
	}
	r.LockContended.WithLabelValues(entityType).Inc()
}
