package interceptors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/pkg/log"
)

var (
	// ErrNoRefreshToken — refresh-токен не сохранён; 401 уходит вызывающему как есть.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrRefreshFailed — обновление access-токена не удалось; токены удалены.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Tokens — хранилище пары токенов, с которым работают Auth и Refresher.
type Tokens interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccess(ctx context.Context, access string) error
	SetPair(ctx context.Context, pair models.TokenPair) error
	Clear(ctx context.Context) error
}

// Пути эндпоинтов без аутентификации относительно базового URL API.
const (
	PathLogin    = "/token/"
	PathRefresh  = "/token/refresh/"
	PathRegister = "/register/"
)

// PublicEndpoints — множество путей, в которые Authorization не отправляется.
// Сравнение точное, без учёта завершающего "/".
type PublicEndpoints struct {
	paths map[string]struct{}
}

// NewPublicEndpoints строит множество путей относительно basePath ("/api").
func NewPublicEndpoints(basePath string, paths ...string) PublicEndpoints {
	p := PublicEndpoints{paths: make(map[string]struct{}, len(paths))}
	for _, s := range paths {
		p.paths[normalize(path.Join("/", basePath, s))] = struct{}{}
	}

	return p
}

// DefaultPublicEndpoints — вход, refresh и регистрация для базового URL API.
func DefaultPublicEndpoints(baseURL string) (PublicEndpoints, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return PublicEndpoints{}, fmt.Errorf("interceptors.DefaultPublicEndpoints: %w", err)
	}

	return NewPublicEndpoints(u.Path, PathLogin, PathRefresh, PathRegister), nil
}

// Match сообщает, публичен ли путь запроса.
func (p PublicEndpoints) Match(urlPath string) bool {
	_, ok := p.paths[normalize(urlPath)]
	return ok
}

func normalize(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}

	return p
}

// Auth — аутентификатор запросов и координатор refresh.
//
// Поведение:
//   - публичный путь (PublicEndpoints) — Authorization удаляется, больше ничего;
//   - иначе прикрепляет "Authorization: Bearer <access>", если токен сохранён;
//   - на 401: при отсутствии refresh-токена ответ 401 возвращается без
//     изменений; иначе Refresher.Refresh (один вызов на все конкурентные 401),
//     затем ровно один повтор исходного запроса с новым токеном;
//   - неудачный refresh — ошибка ErrRefreshFailed (токены уже удалены).
//
// Тело повторяемого запроса берётся из GetBody; если его нет, 401 возвращается
// без refresh.
func Auth(tokens Tokens, refresher *Refresher, public PublicEndpoints) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			const op = "interceptors.Auth"

			ctx := req.Context()

			if public.Match(req.URL.Path) {
				if req.Header.Get("Authorization") == "" {
					return next.RoundTrip(req)
				}

				r := req.Clone(ctx)
				r.Header.Del("Authorization")
				return next.RoundTrip(r)
			}

			access, err := tokens.AccessToken(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}

			resp, err := next.RoundTrip(withBearer(req, access))
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			lg := log.From(ctx)

			retry, ok := rewind(req)
			if !ok {
				lg.Warn("auth_retry_impossible",
					slog.String("op", op),
					slog.String("path", req.URL.Path),
				)
				return resp, nil
			}

			fresh, err := refresher.Refresh(ctx, access)
			if err != nil {
				if errors.Is(err, ErrNoRefreshToken) {
					return resp, nil
				}

				drain(resp)
				return nil, err
			}

			drain(resp)
			return next.RoundTrip(withBearer(retry, fresh))
		})
	}
}

// withBearer — копия запроса с токеном; без токена запрос уходит как есть.
func withBearer(req *http.Request, access string) *http.Request {
	if access == "" {
		return req
	}

	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+access)
	return r
}

// rewind — копия запроса со свежим телом для повтора.
func rewind(req *http.Request) (*http.Request, bool) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, true
	}
	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	r.Body = body

	return r, true
}
