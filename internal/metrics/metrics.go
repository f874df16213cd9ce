// Package metrics собирает метрики Prometheus: HTTP-запросы, переходы тарифов,
// платежи и публикацию событий.
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

	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

const namespace = "reflect_accounts"

// Исходы операций.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
	OutcomeReplayed = "replayed"
)

// Metrics набор коллекторов сервиса в собственном реестре.
type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	planTransitions *prometheus.CounterVec
	payments        *prometheus.CounterVec
	events          *prometheus.CounterVec
}

// New регистрирует коллекторы, включая стандартные go и process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		planTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_transitions_total",
			Help:      "Plan transition attempts by source tier, target tier and outcome.",
		}, []string{"from", "to", "outcome"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payment operations by stage and outcome.",
		}, []string{"stage", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Broker events by routing key and outcome.",
		}, []string{"routing_key", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.planTransitions,
		m.payments,
		m.events,
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware считает запросы по шаблону маршрута chi, чтобы не плодить метки на каждый путь.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
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

// PlanTransition учитывает попытку смены тарифа.
func (m *Metrics) PlanTransition(from, to plan.Tier, outcome string) {
	m.planTransitions.WithLabelValues(from.String(), to.String(), outcome).Inc()
}

// Payment учитывает операцию с платежом: stage order или verify.
func (m *Metrics) Payment(stage, outcome string) {
	m.payments.WithLabelValues(stage, outcome).Inc()
}

// EventPublished учитывает публикацию события в брокер.
func (m *Metrics) EventPublished(routingKey, outcome string) {
	m.events.WithLabelValues(routingKey, outcome).Inc()
}

// Nop реализация без сбора, для тестов и утилит.
type Nop struct{}

func (Nop) PlanTransition(plan.Tier, plan.Tier, string) {}
func (Nop) Payment(string, string)                      {}
func (Nop) EventPublished(string, string)               {}
