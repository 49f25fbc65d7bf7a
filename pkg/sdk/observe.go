package docdedup

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for docdedup_client_requests_total.
const (
	outcomeOK        = "ok"
	outcomeDuplicate = "duplicate"
	outcomeError     = "error"
)

type clientMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docdedup",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Client calls by operation and outcome (ok, duplicate, error).",
	}, []string{"operation", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docdedup",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Client call latency in seconds, including upload body transfer.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})

	var err error
	if requests, err = adopt(reg, requests); err != nil {
		return nil, err
	}
	if latency, err = adopt(reg, latency); err != nil {
		return nil, err
	}
	return &clientMetrics{requests: requests, latency: latency}, nil
}

// adopt registers c, or returns the collector already registered under the
// same descriptor so several clients can share one registry.
func adopt[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("docdedup: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("docdedup: metric registered with type %T", are.ExistingCollector)
	}
	return existing, nil
}

type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// call tracks one client operation from begin to end.
type call struct {
	obs       *observer
	op        string
	start     time.Time
	duplicate bool
}

func (o *observer) begin(op string) *call {
	return &call{obs: o, op: op, start: time.Now()}
}

// markDuplicate records that the server rejected an upload as a near-duplicate.
func (c *call) markDuplicate() { c.duplicate = true }

func (c *call) end(err error) {
	if c == nil || c.obs == nil {
		return
	}
	elapsed := time.Since(c.start)
	outcome := outcomeOK
	switch {
	case err != nil:
		outcome = outcomeError
	case c.duplicate:
		outcome = outcomeDuplicate
	}

	if m := c.obs.metrics; m != nil {
		m.requests.WithLabelValues(c.op, outcome).Inc()
		m.latency.WithLabelValues(c.op).Observe(elapsed.Seconds())
	}

	log := c.obs.logger
	if log == nil {
		return
	}
	if err != nil {
		log.Warn("docdedup call failed", "op", c.op, "elapsed", elapsed, "error", err)
		return
	}
	log.Debug("docdedup call done", "op", c.op, "outcome", outcome, "elapsed", elapsed)
}
