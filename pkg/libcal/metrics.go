package libcal

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	memoLookups     *prometheus.CounterVec
	producerCalls   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by another client are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "libcal",
			Name:      "http_requests_total",
			Help:      "HTTP requests sent, by method and status code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "libcal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		memoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "libcal",
			Name:      "memo_lookups_total",
			Help:      "Memo store lookups, by tier and result.",
		}, []string{"tier", "result"}),
		producerCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "libcal",
			Name:      "memo_producer_calls_total",
			Help:      "Producer invocations after a memo miss or with caching disabled.",
		}),
	}

	if reg == nil {
		return m, nil
	}

	var err error

	m.requests, err = register(reg, m.requests)
	if err != nil {
		return nil, err
	}

	m.requestDuration, err = register(reg, m.requestDuration)
	if err != nil {
		return nil, err
	}

	m.memoLookups, err = register(reg, m.memoLookups)
	if err != nil {
		return nil, err
	}

	m.producerCalls, err = register(reg, m.producerCalls)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return c, err
}

// ObserveRequest records one HTTP round trip. statusCode 0 means no response.
func (m *Metrics) ObserveRequest(method string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}

	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}

	m.requests.WithLabelValues(method, code).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveLookup records a memo lookup in tier ("external" or "local").
func (m *Metrics) ObserveLookup(tier string, hit bool) {
	if m == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	m.memoLookups.WithLabelValues(tier, result).Inc()
}

// ObserveProducer records a producer invocation.
func (m *Metrics) ObserveProducer() {
	if m == nil {
		return
	}

	m.producerCalls.Inc()
}

// Requests returns the request counter, labelled by method and code.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}

// MemoLookups returns the memo lookup counter, labelled by tier and result.
func (m *Metrics) MemoLookups() *prometheus.CounterVec {
	return m.memoLookups
}

// ProducerCalls returns the producer invocation counter.
func (m *Metrics) ProducerCalls() prometheus.Counter {
	return m.producerCalls
}
