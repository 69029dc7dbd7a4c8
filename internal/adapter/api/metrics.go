package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// newMetrics builds the client counters and registers them on reg when it is
// non-nil.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_client_requests_total",
			Help: "Backend requests by method and status code (0 when no response arrived).",
		}, []string{"method", "code"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_client_token_refresh_total",
			Help: "Token refresh attempts by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.refreshes)
	}
	return m
}

func (m *metrics) request(method string, code int) {
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func (m *metrics) refresh(result string) {
	m.refreshes.WithLabelValues(result).Inc()
}
