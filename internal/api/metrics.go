package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes recorded by the transport.
const (
	refreshSuccess = "success"
	refreshFailure = "failure"
	refreshReused  = "reused"
)

// Metrics counts pipeline traffic.
type Metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewMetrics registers the pipeline counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensectl_http_requests_total",
				Help: "Total number of API requests by method and status code",
			},
			[]string{"method", "code"}, // code is "error" for transport failures
		),
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensectl_token_refreshes_total",
				Help: "Total number of access token refresh attempts by outcome",
			},
			[]string{"outcome"}, // success, failure, reused
		),
	}
}

func (m *Metrics) observeRequest(method string, code int, err error) {
	if m == nil {
		return
	}
	label := "error"
	if err == nil {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(method, label).Inc()
}

func (m *Metrics) observeRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}
