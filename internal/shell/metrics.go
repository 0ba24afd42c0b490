package shell

import "github.com/prometheus/client_golang/prometheus"

// Dispatch results recorded by Metrics.
const (
	resultInvoked = "invoked"
	resultDenied  = "denied"
	resultFailed  = "failed"
)

// Metrics holds shell collectors. A nil *Metrics records nothing.
type Metrics struct {
	actions *prometheus.CounterVec
	tabs    prometheus.Gauge
}

// NewMetrics creates the shell collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "shell",
			Name:      "actions_total",
			Help:      "Toolbar actions by action and result.",
		}, []string{"action", "result"}),
		tabs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "console",
			Subsystem: "shell",
			Name:      "open_tabs",
			Help:      "Tabs currently open across all sessions.",
		}),
	}
	reg.MustRegister(m.actions, m.tabs)
	return m
}

func (m *Metrics) action(action, result string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) tabsAdded(n int) {
	if m == nil {
		return
	}
	m.tabs.Add(float64(n))
}
