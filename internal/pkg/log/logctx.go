// log прокладывает request-scoped *slog.Logger через context.Context.
//
// Интерсепторы исходящих запросов обогащают логгер (request_id, method, path)
// и кладут его в контекст; нижележащие слои достают его через From.
package log

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст. nil-логгер не сохраняется.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}

	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// FromOr как From, но без логгера в контексте возвращает fallback
// (slog.Default(), если fallback == nil).
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}

	return slog.Default()
}

// With дополняет логгер из контекста атрибутами и возвращает новый контекст
// вместе с обогащённым логгером.
func With(ctx context.Context, args ...any) (context.Context, *slog.Logger) {
	l := From(ctx).With(args...)
	return Into(ctx, l), l
}

// Discard — логгер без вывода (тесты, --quiet).
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
