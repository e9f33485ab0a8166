package interceptors

import (
	"net/http"

	"github.com/google/uuid"
)

// WithMetadata — добавляет в исходящий запрос заголовки (если их ещё нет):
//   - X-Request-Id (из контекста или новый UUID),
//   - User-Agent (если передан параметром),
//   - Content-Type: application/json (только при наличии тела).
//
// Исходный запрос не модифицируется.
func WithMetadata(userAgent string) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			r := req.Clone(req.Context())

			if r.Header.Get("X-Request-Id") == "" {
				rid, _ := req.Context().Value(CtxRequestID).(string)
				if rid == "" {
					rid = uuid.NewString()
				}
				r.Header.Set("X-Request-Id", rid)
			}
			if userAgent != "" && r.Header.Get("User-Agent") == "" {
				r.Header.Set("User-Agent", userAgent)
			}
			if r.Body != nil && r.Body != http.NoBody && r.Header.Get("Content-Type") == "" {
				r.Header.Set("Content-Type", "application/json")
			}

			return next.RoundTrip(r)
		})
	}
}
