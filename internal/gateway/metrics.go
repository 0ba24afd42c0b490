package gateway

import (
	"context"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds gateway collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the gateway collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway calls by statement and outcome.",
		}, []string{"map", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "console",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Gateway call latency by statement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"map"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	case errors.Is(err, domain.ErrApplication):
		return "application"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}

// Instrumented records metrics around another Client.
type Instrumented struct {
	next    Client
	metrics *Metrics
}

// Ensure Instrumented implements Client.
var _ Client = (*Instrumented)(nil)

// Instrument wraps next with metrics collection.
func Instrument(next Client, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (c *Instrumented) observe(mapName string, start time.Time, err error) {
	c.metrics.requests.WithLabelValues(mapName, outcome(err)).Inc()
	c.metrics.duration.WithLabelValues(mapName).Observe(time.Since(start).Seconds())
}

func (c *Instrumented) Query(ctx context.Context, req Request) ([]domain.Record, error) {
	start := time.Now()
	rows, err := c.next.Query(ctx, req)
	c.observe(req.Map, start, err)
	return rows, err
}

func (c *Instrumented) Write(ctx context.Context, kind WriteKind, req Request) error {
	start := time.Now()
	err := c.next.Write(ctx, kind, req)
	c.observe(req.Map, start, err)
	return err
}

func (c *Instrumented) Login(ctx context.Context, userID, password string) (*domain.LoginResult, error) {
	start := time.Now()
	res, err := c.next.Login(ctx, userID, password)
	c.observe(MapLogin, start, err)
	return res, err
}
