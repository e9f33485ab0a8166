package apitest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/controlae/internal/models"
)

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url, access string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_TokenLifecycle(t *testing.T) {
	t.Parallel()

	s := New(t)
	s.AddUser("maria", "segredo1")

	resp := post(t, s.BaseURL()+"/token/", models.LoginRequest{Username: "maria", Password: "segredo1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pair models.TokenPair
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))

	require.Equal(t, http.StatusOK, get(t, s.BaseURL()+"/contas/", pair.Access).StatusCode)
	require.Equal(t, http.StatusUnauthorized, get(t, s.BaseURL()+"/contas/", "").StatusCode)

	s.ExpireAccessTokens()
	require.Equal(t, http.StatusUnauthorized, get(t, s.BaseURL()+"/contas/", pair.Access).StatusCode)
	require.Equal(t, 2, s.Unauthorized())

	resp = post(t, s.BaseURL()+"/token/refresh/", models.RefreshRequest{Refresh: pair.Refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out models.RefreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Empty(t, out.Refresh)
	require.Equal(t, http.StatusOK, get(t, s.BaseURL()+"/contas/", out.Access).StatusCode)

	// Refresh-токен не принимается как access.
	require.Equal(t, http.StatusUnauthorized, get(t, s.BaseURL()+"/contas/", pair.Refresh).StatusCode)
}

func TestServer_RotationRevokesOldRefresh(t *testing.T) {
	t.Parallel()

	s := New(t, WithRotation())
	u := s.AddUser("maria", "segredo1")
	pair, err := s.IssuePair(u.ID)
	require.NoError(t, err)

	resp := post(t, s.BaseURL()+"/token/refresh/", models.RefreshRequest{Refresh: pair.Refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out models.RefreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Refresh)

	resp = post(t, s.BaseURL()+"/token/refresh/", models.RefreshRequest{Refresh: pair.Refresh})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 2, s.RefreshCalls())
}

func TestServer_FailRefresh(t *testing.T) {
	t.Parallel()

	s := New(t)
	u := s.AddUser("maria", "segredo1")
	pair, err := s.IssuePair(u.ID)
	require.NoError(t, err)

	s.FailRefresh(true)
	resp := post(t, s.BaseURL()+"/token/refresh/", models.RefreshRequest{Refresh: pair.Refresh})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
