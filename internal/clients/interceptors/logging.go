package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/controlae/internal/pkg/log"
)

// Logging — логирование исходящих запросов.
// Поведение:
//   - берёт X-Request-Id из запроса (или контекста, или генерирует новый);
//   - добавляет поля request_id/method/path, прокладывает обогащённый логгер
//     в контекст (pkg/log);
//   - пишет одну финальную запись msg="http_out": status и dur;
//     5xx — уровень Error, ошибка транспорта — Warn с err.
//
// Безопасность: не логирует тела, query и заголовки (Authorization).
func Logging(base *slog.Logger) Interceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			rid := req.Header.Get("X-Request-Id")
			if rid == "" {
				rid, _ = req.Context().Value(CtxRequestID).(string)
			}
			if rid == "" {
				rid = uuid.NewString()
				req = req.Clone(req.Context())
				req.Header.Set("X-Request-Id", rid)
			}

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)
			ctx := log.Into(req.Context(), l)

			resp, err := next.RoundTrip(req.WithContext(ctx))
			dur := time.Since(start)

			switch {
			case err != nil:
				l.Warn("http_out",
					slog.String("err", err.Error()),
					slog.Duration("dur", dur),
				)
			case resp.StatusCode >= http.StatusInternalServerError:
				l.Error("http_out",
					slog.Int("status", resp.StatusCode),
					slog.Duration("dur", dur),
				)
			default:
				l.Info("http_out",
					slog.Int("status", resp.StatusCode),
					slog.Duration("dur", dur),
				)
			}

			return resp, err
		})
	}
}
