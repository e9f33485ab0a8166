package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — полезная нагрузка access-токена (SimpleJWT).
type Claims struct {
	UserID    any    `json:"user_id"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims читает claims без проверки подписи: секрет есть только у
// сервера, клиенту claims нужны лишь для отображения и оценки срока жизни.
func ParseClaims(access string) (*Claims, error) {
	const op = "session.ParseClaims"

	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// UserIDString — идентификатор пользователя строкой (user_id бывает числом или строкой).
func (c *Claims) UserIDString() string {
	switch v := c.UserID.(type) {
	case nil:
		return c.RegisteredClaims.Subject
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

// ExpiresIn — сколько осталось жить токену на момент now; false если exp не задан.
// Отрицательная длительность — токен уже истёк.
func (c *Claims) ExpiresIn(now time.Time) (time.Duration, bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}

	return c.ExpiresAt.Sub(now), true
}
