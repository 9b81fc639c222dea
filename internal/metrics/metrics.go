// Package metrics собирает prometheus-метрики API: решения о доступе к книгам,
// клики по партнёрским ссылкам и длительность HTTP-запросов.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "glanceread"

// Metrics набор коллекторов приложения в собственном реестре.
type Metrics struct {
	registry        *prometheus.Registry
	entitlements    *prometheus.CounterVec
	affiliateClicks *prometheus.CounterVec
	productClicks   prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New создаёт и регистрирует коллекторы.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		entitlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "books",
			Name:      "entitlement_decisions_total",
			Help:      "Access decisions made for book reads.",
		}, []string{"access", "tier"}),
		affiliateClicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "affiliate",
			Name:      "clicks_total",
			Help:      "Affiliate link clicks by source.",
		}, []string{"source"}),
		productClicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "products",
			Name:      "clicks_total",
			Help:      "Shop product link clicks.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.entitlements,
		m.affiliateClicks,
		m.productClicks,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler отдаёт метрики в формате prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEntitlement учитывает одно решение о доступе.
func (m *Metrics) ObserveEntitlement(access, tier string) {
	m.entitlements.WithLabelValues(access, tier).Inc()
}

// ObserveAffiliateClick учитывает клик по партнёрской ссылке книги.
func (m *Metrics) ObserveAffiliateClick(source string) {
	m.affiliateClicks.WithLabelValues(source).Inc()
}

// ObserveProductClick учитывает клик по товару магазина.
func (m *Metrics) ObserveProductClick() {
	m.productClicks.Inc()
}

// Middleware считает запросы и их длительность по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
