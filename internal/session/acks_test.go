package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcks_ToggleAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, kv := newSession(t)
	a := s.Acks()

	ids, err := a.List(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	done, err := a.Toggle(ctx, 9)
	require.NoError(t, err)
	require.True(t, done)

	done, err = a.Toggle(ctx, 2)
	require.NoError(t, err)
	require.True(t, done)

	ids, err = a.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 9}, ids)

	raw, ok, err := kv.Get(ctx, KeyAcks)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[2,9]`, raw)

	done, err = a.Toggle(ctx, 9)
	require.NoError(t, err)
	require.False(t, done)

	has, err := a.Has(ctx, 9)
	require.NoError(t, err)
	require.False(t, has)
}

func TestAcks_CorruptValueIsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, kv := newSession(t)
	require.NoError(t, kv.Put(ctx, map[string]string{KeyAcks: "{oops"}))

	ids, err := s.Acks().List(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, s.Acks().Set(ctx, 5, true))
	ids, err = s.Acks().List(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{5}, ids)
}
