package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - счетчики уведомлений, переходов статусов и поиска.
// Регистрируются в собственном реестре, чтобы тесты могли создавать несколько экземпляров.
type Metrics struct {
	registry *prometheus.Registry

	NotificationsPublished *prometheus.CounterVec
	NotificationsFailed    *prometheus.CounterVec
	Transitions            *prometheus.CounterVec
	SearchDuration         *prometheus.HistogramVec
	HTTPRequests           *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		NotificationsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteer_notifications_published_total",
			Help: "Notification messages accepted by the message bus",
		}, []string{"routing_key"}),

		NotificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteer_notifications_failed_total",
			Help: "Notification messages dropped after timeout or publish failure",
		}, []string{"routing_key"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteer_application_transitions_total",
			Help: "Applied application status transitions",
		}, []string{"from", "to"}),

		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "volunteer_search_duration_seconds",
			Help:    "Opportunity search latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"geo"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteer_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// nil-safe методы: сервисы работают и без метрик

func (m *Metrics) NotificationPublished(routingKey string) {
	if m != nil {
		m.NotificationsPublished.WithLabelValues(routingKey).Inc()
	}
}

func (m *Metrics) NotificationFailed(routingKey string) {
	if m != nil {
		m.NotificationsFailed.WithLabelValues(routingKey).Inc()
	}
}

func (m *Metrics) Transition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) ObserveSearch(geo bool, d time.Duration) {
	if m != nil {
		m.SearchDuration.WithLabelValues(strconv.FormatBool(geo)).Observe(d.Seconds())
	}
}

// Handler - GET /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware считает запросы по шаблону маршрута
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
