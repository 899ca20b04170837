package jira

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts JIRA requests by operation and status code
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starburst_jira_requests_total",
		Help: "Total JIRA requests by operation and status code",
	}, []string{"op", "code"})

	// requestDuration tracks JIRA request latency
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starburst_jira_request_duration_seconds",
		Help:    "JIRA request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func observe(op string, start time.Time, code int) {
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(op, strconv.Itoa(code)).Inc()
}
