package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BridgeMetrics holds the collectors updated by the bridge. All methods are safe
// to call on a nil receiver.
type BridgeMetrics struct {
	transactions   *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	sessionsOpen   prometheus.Gauge
	sessionOpens   prometheus.Counter
	sessionCloses  prometheus.Counter
	identityChecks *prometheus.CounterVec
	rateLimited    prometheus.Counter
}

// NewBridgeMetrics creates the bridge collectors and registers them with reg.
func NewBridgeMetrics(namespace string, reg prometheus.Registerer) (*BridgeMetrics, error) {
	m := &BridgeMetrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Bridge transactions by operation, kind and outcome.",
		}, []string{"operation", "kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "End-to-end bridge transaction latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "kind"}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Ledger gateway sessions currently open.",
		}),
		sessionOpens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_opens_total",
			Help:      "Ledger gateway sessions opened.",
		}),
		sessionCloses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_closes_total",
			Help:      "Ledger gateway sessions closed.",
		}),
		identityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_checks_total",
			Help:      "Identity verifications by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.transactions, m.duration, m.sessionsOpen, m.sessionOpens,
		m.sessionCloses, m.identityChecks, m.rateLimited,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveTransaction records one finished bridge call. outcome is the error code,
// "OK" on success.
func (m *BridgeMetrics) ObserveTransaction(operation, kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(operation, kind, outcome).Inc()
	m.duration.WithLabelValues(operation, kind).Observe(elapsed.Seconds())
}

func (m *BridgeMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionOpens.Inc()
	m.sessionsOpen.Inc()
}

func (m *BridgeMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionCloses.Inc()
	m.sessionsOpen.Dec()
}

func (m *BridgeMetrics) IdentityChecked(result string) {
	if m == nil {
		return
	}
	m.identityChecks.WithLabelValues(result).Inc()
}

func (m *BridgeMetrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
