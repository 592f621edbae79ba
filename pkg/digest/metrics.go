package digest

import (
	"github.com/gimlet-io/coverage-digest/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	sourceCoverage     = "coverage"
	sourcePullRequests = "pull_requests"
)

// Metrics of a single run. They live in their own registry
// so a push does not carry the Go runtime collectors.
type Metrics struct {
	Registry *prometheus.Registry

	coverage      *prometheus.GaugeVec
	fetchFailures *prometheus.CounterVec
	pullRequests  prometheus.Gauge
	perf          *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "digest_coverage_percent",
			Help: "Code coverage of the tracked project",
		}, []string{"project"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digest_fetch_failures_total",
			Help: "Upstream fetches that yielded no data",
		}, []string{"source"}),
		pullRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "digest_outstanding_pull_requests",
			Help: "Open pull requests within the lookback window",
		}),
		perf: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "digest_perf",
			Help: "Performance of functions",
		}, []string{"function"}),
	}

	m.Registry.MustRegister(m.coverage, m.fetchFailures, m.pullRequests, m.perf)
	return m
}

func (m *Metrics) observeCoverage(reading model.CoverageReading) {
	if m == nil {
		return
	}
	if reading.Percent == nil {
		m.fetchFailures.WithLabelValues(sourceCoverage).Inc()
		return
	}
	m.coverage.WithLabelValues(reading.Project.Key).Set(*reading.Percent)
}

func (m *Metrics) observePullRequests(count int, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.fetchFailures.WithLabelValues(sourcePullRequests).Inc()
	}
	m.pullRequests.Set(float64(count))
}

// PullRequestFailures is the counter pull request sources report their own failures to.
// Timeouts and panics are counted by the Composer.
func (m *Metrics) PullRequestFailures() prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.fetchFailures.WithLabelValues(sourcePullRequests)
}

func (m *Metrics) timer(function string) *prometheus.Timer {
	if m == nil {
		return prometheus.NewTimer(prometheus.ObserverFunc(func(float64) {}))
	}
	return prometheus.NewTimer(m.perf.WithLabelValues(function))
}

// Push sends the metrics of the run to a Prometheus Pushgateway
func (m *Metrics) Push(url string, job string) error {
	return push.New(url, job).Gatherer(m.Registry).Push()
}
