// guard — проверка доступа к защищённым командам: без access-токена
// пользователь отправляется на вход с адресом возврата.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// LoginPath — страница входа.
const LoginPath = "/entrar"

// ErrLoginRequired — сессии нет, нужен вход.
var ErrLoginRequired = errors.New("login required")

// RedirectError — переход на страницу входа с возвратом на ReturnURL.
type RedirectError struct {
	Login     string
	ReturnURL string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("login required: redirect to %s", e.Location())
}

func (e *RedirectError) Is(target error) bool { return target == ErrLoginRequired }

// Location — адрес перехода: /entrar?returnUrl=<target>.
func (e *RedirectError) Location() string {
	if e.ReturnURL == "" {
		return e.Login
	}

	return e.Login + "?" + url.Values{"returnUrl": {e.ReturnURL}}.Encode()
}

// TokenSource — откуда guard узнаёт о наличии сессии.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type Guard struct {
	tokens TokenSource
}

func New(tokens TokenSource) *Guard {
	return &Guard{tokens: tokens}
}

// Check пропускает target, если access-токен сохранён. Срок жизни токена
// не проверяется: истёкший токен обновит Auth при первом 401.
func (g *Guard) Check(ctx context.Context, target string) error {
	const op = "guard.Check"

	tok, err := g.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tok == "" {
		return &RedirectError{Login: LoginPath, ReturnURL: target}
	}

	return nil
}
