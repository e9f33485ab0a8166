// interceptors предоставляет набор http.RoundTripper-интерсепторов для
// исходящих запросов клиента к REST API.
package interceptors

import (
	"context"
	"io"
	"net/http"
)

// Interceptor оборачивает следующий транспорт цепочки.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc — адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain собирает транспорт: первый интерсептор — внешний.
// base == nil — http.DefaultTransport; nil-интерсепторы пропускаются.
func Chain(base http.RoundTripper, ics ...Interceptor) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	rt := base
	for i := len(ics) - 1; i >= 0; i-- {
		if ics[i] != nil {
			rt = ics[i](rt)
		}
	}

	return rt
}

type CtxKey string

const CtxRequestID CtxKey = "request_id"

// WithRequestID кладёт request_id в контекст; WithMetadata отправит его в X-Request-Id.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, CtxRequestID, rid)
}

// drain дочитывает (с ограничением) и закрывает тело ответа, чтобы
// соединение вернулось в пул.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
