package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Тесты меняют slog.Default(), поэтому намеренно НЕ используют t.Parallel().

func TestFrom_ReturnsDefault_WhenNoLoggerInContext(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := Discard()
	slog.SetDefault(def)

	require.Equal(t, def, From(context.Background()))
}

func TestIntoAndFrom_RoundTrip(t *testing.T) {
	l := Discard()
	ctx := Into(context.Background(), l)

	require.Equal(t, l, From(ctx))
}

// TestInto_NilLogger_KeepsParent — nil не затирает логгер родителя.
func TestInto_NilLogger_KeepsParent(t *testing.T) {
	parent := Discard()
	ctx := Into(context.Background(), parent)
	ctx = Into(ctx, nil)

	require.Equal(t, parent, From(ctx))
}

func TestFrom_ReturnsDefault_WhenStoredValueIsWrongType(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	def := Discard()
	slog.SetDefault(def)

	ctx := context.WithValue(context.Background(), ctxKey{}, "not-a-logger")
	require.Equal(t, def, From(ctx))
}

// TestWith_EnrichesLoggerAndContext — атрибуты попадают в запись,
// а обогащённый логгер достаётся из нового контекста.
func TestWith_EnrichesLoggerAndContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := Into(context.Background(), base)
	ctx, l := With(ctx, "request_id", "rid-1")

	require.Equal(t, l, From(ctx))

	From(ctx).Info("probe")
	require.Contains(t, buf.String(), "request_id=rid-1")
	require.Contains(t, buf.String(), "msg=probe")
}

func TestInto_PreservesDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	child := Into(parent, Discard())

	cdl, ok := child.Deadline()
	require.True(t, ok)
	pdl, _ := parent.Deadline()
	require.WithinDuration(t, pdl, cdl, time.Millisecond)
}

func TestFromOr(t *testing.T) {
	fallback := Discard()
	require.Same(t, fallback, FromOr(context.Background(), fallback))
	require.Same(t, slog.Default(), FromOr(context.Background(), nil))

	inCtx := Discard()
	require.Same(t, inCtx, FromOr(Into(context.Background(), inCtx), fallback))
}
