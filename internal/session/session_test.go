package session

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/controlae/internal/mocks"
	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*Session, *memory.Storage) {
	t.Helper()

	kv := memory.New()
	return New(kv), kv
}

func TestSession_PairLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, kv := newSession(t)

	has, err := s.HasSession(ctx)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, s.SetPair(ctx, models.TokenPair{Access: "a1", Refresh: "r1"}))

	has, err = s.HasSession(ctx)
	require.NoError(t, err)
	require.True(t, has)

	// Ключи совпадают с веб-клиентом.
	v, ok, err := kv.Get(ctx, "access_token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a1", v)

	require.NoError(t, s.SetAccess(ctx, "a2"))
	pair, err := s.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, models.TokenPair{Access: "a2", Refresh: "r1"}, pair)

	require.NoError(t, s.Clear(ctx))
	pair, err = s.Tokens(ctx)
	require.NoError(t, err)
	require.Empty(t, pair.Access)
	require.Empty(t, pair.Refresh)
}

func TestSession_EmptyTokensRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newSession(t)

	require.ErrorIs(t, s.SetPair(ctx, models.TokenPair{Access: "a"}), ErrEmptyToken)
	require.ErrorIs(t, s.SetAccess(ctx, ""), ErrEmptyToken)
}

func TestSession_UserAndLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newSession(t)

	_, ok, err := s.User(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	u := models.User{ID: 7, Username: "maria", Email: "maria@escola.br", SerieEm: 2}
	require.NoError(t, s.SetUser(ctx, u))
	require.NoError(t, s.SetPair(ctx, models.TokenPair{Access: "a", Refresh: "r"}))
	require.NoError(t, s.Acks().Set(ctx, 3, true))

	got, ok, err := s.User(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, u, got)

	require.NoError(t, s.Logout(ctx))

	_, ok, err = s.User(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	has, err := s.HasSession(ctx)
	require.NoError(t, err)
	require.False(t, has)

	// Отметки напоминаний переживают выход.
	done, err := s.Acks().Has(ctx, 3)
	require.NoError(t, err)
	require.True(t, done)
}

func TestSession_StorageErrorsWrapped(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKV(ctrl)
	s := New(kv)
	ctx := context.Background()
	boom := errors.New("disk full")

	kv.EXPECT().Get(gomock.Any(), KeyAccess).Return("", false, boom)
	_, err := s.AccessToken(ctx)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "session.AccessToken")

	kv.EXPECT().Put(gomock.Any(), map[string]string{KeyAccess: "a", KeyRefresh: "r"}).Return(boom)
	err = s.SetPair(ctx, models.TokenPair{Access: "a", Refresh: "r"})
	require.ErrorIs(t, err, boom)

	kv.EXPECT().Delete(gomock.Any(), KeyAccess, KeyRefresh).Return(boom)
	require.ErrorIs(t, s.Clear(ctx), boom)

	kv.EXPECT().Close().Return(nil)
	require.NoError(t, s.Close())
}
