package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

var (
	Resolves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolve_requests_total",
		Help: "Resolve requests by outcome state.",
	}, []string{"state"})
	Creates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "create_requests_total",
		Help: "Total link create requests.",
	})
	SafetyVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "safety_verdicts_total",
		Help: "Full safety checks by final level.",
	}, []string{"level"})
	Reports = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "community_reports_total",
		Help: "Accepted community reports.",
	})
	AnalyticsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_dropped_total",
		Help: "Analytics events lost to store write failures.",
	})
)

func init() {
	prometheus.MustRegister(Resolves, Creates, SafetyVerdicts, Reports, AnalyticsDropped)
}

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
