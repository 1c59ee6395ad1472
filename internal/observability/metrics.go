package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/edutaxonomy-backend/internal/platform/envutil"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

// Metrics is safe to use through a nil pointer; every method is a no-op then.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	populateRequests *prometheus.CounterVec
	populateRows     *prometheus.CounterVec
	guardRejections  *prometheus.CounterVec
	rateLimited      prometheus.Counter

	generatorCalls   *prometheus.CounterVec
	generatorLatency *prometheus.HistogramVec

	repairDeleted  *prometheus.CounterVec
	repairFailures *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

// Init creates the process-wide metrics instance when METRICS_ENABLED allows it.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		if !Enabled() {
			if log != nil {
				log.Info("metrics disabled")
			}
			return
		}
		instance = New()
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New builds an instance on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		populateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_populate_requests_total",
			Help: "Population requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		populateRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_populate_rows_total",
			Help: "Generator candidates by kind and result (inserted, reactivated, filtered, failed).",
		}, []string{"kind", "result"}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_populate_in_progress_rejections_total",
			Help: "Population requests rejected because the same scope was in flight.",
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_populate_rate_limited_total",
			Help: "Population requests rejected by the per-client rate limiter.",
		}),
		generatorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_generator_calls_total",
			Help: "Upstream generator calls by model and status.",
		}, []string{"model", "status"}),
		generatorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_generator_call_duration_seconds",
			Help:    "Upstream generator call latency including retries.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"model"}),
		repairDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_schema_repair_deleted_rows_total",
			Help: "Duplicate rows removed by startup schema repair.",
		}, []string{"table"}),
		repairFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_schema_repair_failures_total",
			Help: "Schema repair steps that failed, by table.",
		}, []string{"table"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.populateRequests, m.populateRows, m.guardRejections, m.rateLimited,
		m.generatorCalls, m.generatorLatency,
		m.repairDeleted, m.repairFailures,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) IncPopulate(kind, outcome string) {
	if m != nil {
		m.populateRequests.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) AddPopulateRows(kind, result string, n int) {
	if m != nil && n > 0 {
		m.populateRows.WithLabelValues(kind, result).Add(float64(n))
	}
}

func (m *Metrics) IncGuardRejection(kind string) {
	if m != nil {
		m.guardRejections.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncRateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

func (m *Metrics) ObserveGeneratorCall(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.generatorCalls.WithLabelValues(model, status).Inc()
	m.generatorLatency.WithLabelValues(model).Observe(dur.Seconds())
}

func (m *Metrics) ObserveRepair(table string, deleted int64, failed bool) {
	if m == nil {
		return
	}
	if deleted > 0 {
		m.repairDeleted.WithLabelValues(table).Add(float64(deleted))
	}
	if failed {
		m.repairFailures.WithLabelValues(table).Inc()
	}
}
