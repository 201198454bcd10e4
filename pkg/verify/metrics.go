package verify

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of Prometheus collectors the orchestrator updates on
// every Verify call. A nil *Metrics is valid and simply does nothing,
// so callers that don't care about observability can omit it.
type Metrics struct {
	verifyTotal    *prometheus.CounterVec
	verifyDuration prometheus.Histogram
	storeRetries   prometheus.Counter
}

// NewMetrics builds and registers the orchestrator's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		verifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acdp",
			Subsystem: "verify",
			Name:      "requests_total",
			Help:      "Verification attempts by outcome kind.",
		}, []string{"kind"}),
		verifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "acdp",
			Subsystem: "verify",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a Verify call.",
			Buckets:   prometheus.DefBuckets,
		}),
		storeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "acdp",
			Subsystem: "verify",
			Name:      "store_retries_total",
			Help:      "Number of bounded-backoff retries against the store.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.verifyTotal, m.verifyDuration, m.storeRetries)
	}
	return m
}

func (m *Metrics) observeOutcome(kind string) {
	if m == nil {
		return
	}
	m.verifyTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeDuration(seconds float64) {
	if m == nil {
		return
	}
	m.verifyDuration.Observe(seconds)
}

func (m *Metrics) incStoreRetry() {
	if m == nil {
		return
	}
	m.storeRetries.Inc()
}
