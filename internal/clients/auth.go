package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pribylovaa/controlae/internal/clients/interceptors"
	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/pkg/redact"
	"github.com/pribylovaa/controlae/internal/session"
)

// AuthClient — регистрация, вход, ручной refresh и выход.
type AuthClient struct {
	rest      *rest
	sess      *session.Session
	refresher *interceptors.Refresher
	log       *slog.Logger
}

// Register создаёт учётную запись; сессию не открывает.
func (c *AuthClient) Register(ctx context.Context, in models.RegisterRequest) (models.User, error) {
	const op = "clients.AuthClient.Register"

	var out models.User
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, interceptors.PathRegister, nil, in, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("user_registered",
		slog.String("username", redact.Username(in.Username)),
		slog.String("email", redact.Email(in.Email)),
	)

	return out, nil
}

// Login получает пару токенов и сохраняет её вместе с данными пользователя.
func (c *AuthClient) Login(ctx context.Context, in models.LoginRequest) (models.User, error) {
	const op = "clients.AuthClient.Login"

	if err := in.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var pair models.TokenPair
	if err := c.rest.do(ctx, http.MethodPost, interceptors.PathLogin, nil, in, &pair); err != nil {
		c.log.Warn("login_failed",
			slog.String("username", redact.Username(in.Username)),
			slog.String("err", err.Error()),
		)
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.sess.SetPair(ctx, pair); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u := models.User{Username: in.Username}
	if claims, err := session.ParseClaims(pair.Access); err == nil {
		u.ID, _ = strconv.ParseInt(claims.UserIDString(), 10, 64)
	}
	if err := c.sess.SetUser(ctx, u); err != nil {
		return u, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("login_ok",
		slog.String("username", redact.Username(in.Username)),
		slog.String("access", redact.Token(pair.Access)),
	)

	return u, nil
}

// Refresh принудительно обновляет access-токен тем же координатором,
// что обслуживает 401.
func (c *AuthClient) Refresh(ctx context.Context) error {
	const op = "clients.AuthClient.Refresh"

	access, err := c.sess.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := c.refresher.Refresh(ctx, access); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Logout удаляет токены и данные пользователя. Сервер о выходе не уведомляется:
// SimpleJWT без blacklist не умеет отзывать токены.
func (c *AuthClient) Logout(ctx context.Context) error {
	const op = "clients.AuthClient.Logout"

	if err := c.sess.Logout(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("logout")
	return nil
}
