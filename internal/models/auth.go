package models

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Серии (ano escolar) ensino médio.
const (
	SerieMin = 1
	SerieMax = 3
)

// RegisterRequest — тело POST /register/.
// ConfirmPassword проверяется локально и на сервер не уходит.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	SerieEm         int    `json:"serie_em"`
}

func (r RegisterRequest) Validate() error {
	var c checker

	username := strings.TrimSpace(r.Username)
	c.check(username != "", "username", "Usuário é obrigatório")
	c.check(utf8.RuneCountInString(username) >= 3, "username", "Usuário deve ter no mínimo 3 caracteres")

	c.check(r.Email != "", "email", "Email é obrigatório")
	c.check(emailRe.MatchString(r.Email), "email", "Email inválido")

	c.check(r.Password != "", "password", "Senha é obrigatória")
	c.check(utf8.RuneCountInString(r.Password) >= 6, "password", "Senha deve ter no mínimo 6 caracteres")
	c.check(r.Password == r.ConfirmPassword, "confirm_password", "As senhas não conferem")

	c.check(r.SerieEm >= SerieMin && r.SerieEm <= SerieMax, "serie_em", "Selecione um ano escolar válido")

	return c.err()
}

// LoginRequest — тело POST /token/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	var c checker
	c.check(!blank(r.Username), "username", "Usuário é obrigatório")
	c.check(r.Password != "", "password", "Senha é obrigatória")

	return c.err()
}

// TokenPair — ответ POST /token/.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshRequest — тело POST /token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse — ответ POST /token/refresh/. Refresh приходит только
// при включённой на сервере ротации refresh-токенов.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// User — данные пользователя, сохраняемые локально под ключом usuario_dados.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	SerieEm  int    `json:"serie_em,omitempty"`
}
