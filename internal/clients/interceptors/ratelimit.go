package interceptors

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// NewLimiter — лимитер исходящих запросов; rps <= 0 — без ограничения (nil).
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(rps), burst)
}

// WithRateLimit ждёт токен лимитера перед каждым запросом. Один лимитер
// можно разделить между несколькими цепочками (основной и refresh).
// nil-лимитер — запрос уходит сразу.
func WithRateLimit(l *rate.Limiter) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		if l == nil {
			return next
		}

		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := l.Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("interceptors.WithRateLimit: %w", err)
			}

			return next.RoundTrip(req)
		})
	}
}
