package interceptors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы refresh для метрики controlae_token_refresh_total.
const (
	RefreshOK      = "ok"
	RefreshFailed  = "failed"
	RefreshNoToken = "no_token"
	// RefreshShared — токен уже обновил другой запрос, сетевого вызова не было.
	RefreshShared = "shared"
)

// Metrics — метрики исходящих запросов клиента. Нулевой указатель
// безопасен: все методы становятся no-op.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "controlae_http_requests_total",
			Help: "Outgoing API requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "controlae_http_request_duration_seconds",
			Help:    "Outgoing API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "controlae_token_refresh_total",
			Help: "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// Interceptor — учёт каждого запроса, дошедшего до транспорта.
func (m *Metrics) Interceptor() Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		if m == nil {
			return next
		}

		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			route := Route(req.URL.Path)
			code := "error"
			if err == nil {
				code = strconv.Itoa(resp.StatusCode)
			}

			m.requests.WithLabelValues(req.Method, route, code).Inc()
			m.duration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())

			return resp, err
		})
	}
}

// ObserveRefresh учитывает исход refresh.
func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}

	m.refreshes.WithLabelValues(outcome).Inc()
}

// Route — путь с числовыми сегментами, заменёнными на ":id"
// (/api/metas/7/progresso/ -> /api/metas/:id/progresso/).
func Route(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}

	return strings.Join(parts, "/")
}
