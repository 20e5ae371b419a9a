package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 收集 HTTP、同步與報表指標；每個實例擁有獨立 registry。
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	syncTotal         *prometheus.CounterVec
	syncRecords       *prometheus.CounterVec
	syncDuration      prometheus.Histogram
	alertsSent        prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoi_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aoi_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoi_sync_runs_total",
			Help: "Record sync runs by result.",
		}, []string{"result"}),
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoi_sync_records_total",
			Help: "Records handled by sync, by outcome (fetched, stored, skipped).",
		}, []string{"outcome"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aoi_sync_duration_seconds",
			Help:    "Histogram of record sync durations.",
			Buckets: prometheus.DefBuckets,
		}),
		alertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoi_alerts_sent_total",
			Help: "Overkill alerts dispatched to notifiers.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.httpRequestsTotal,
		m.httpDuration,
		m.syncTotal,
		m.syncRecords,
		m.syncDuration,
		m.alertsSent,
	)
	return m
}

// Handler 回傳 /metrics 使用的 handler。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 供測試讀取已收集的數值。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveSync 記錄一次同步結果。
func (m *Metrics) ObserveSync(fetched, stored, skipped int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.syncTotal.WithLabelValues(result).Inc()
	m.syncRecords.WithLabelValues("fetched").Add(float64(fetched))
	m.syncRecords.WithLabelValues("stored").Add(float64(stored))
	m.syncRecords.WithLabelValues("skipped").Add(float64(skipped))
	m.syncDuration.Observe(duration.Seconds())
}

// RegisterRecordCount 以 GaugeFunc 於每次 scrape 時讀取目前紀錄數；讀取失敗回報 -1。
func (m *Metrics) RegisterRecordCount(count func() (int, error)) {
	if m == nil || count == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "aoi_stored_records",
		Help: "Number of inspection records currently stored.",
	}, func() float64 {
		n, err := count()
		if err != nil {
			return -1
		}
		return float64(n)
	}))
}

func (m *Metrics) AlertSent() {
	if m == nil {
		return
	}
	m.alertsSent.Inc()
}
