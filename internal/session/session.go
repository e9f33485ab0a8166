// session - хранилище токенов клиента поверх storage.KV.
//
// Ключи совпадают с теми, что использует веб-клиент Controlaê, поэтому
// файл/хэш сессии можно читать и писать обоими клиентами.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/storage"
)

// Ключи KV.
const (
	KeyAccess  = "access_token"
	KeyRefresh = "refresh_token"
	KeyUser    = "usuario_dados"
	KeyAcks    = "lembretes_done"
)

var (
	// ErrNoSession — access-токен не сохранён (пользователь не вошёл).
	ErrNoSession = errors.New("no session")
	// ErrEmptyToken — попытка сохранить пустой токен.
	ErrEmptyToken = errors.New("empty token")
)

// Session — пара токенов и данные пользователя одного профиля.
// Безопасна для конкурентного использования, если таков нижележащий KV.
type Session struct {
	kv   storage.KV
	acks *Acks
}

func New(kv storage.KV) *Session {
	return &Session{kv: kv, acks: &Acks{kv: kv}}
}

// Tokens возвращает сохранённую пару; отсутствующие части — пустые строки.
func (s *Session) Tokens(ctx context.Context) (models.TokenPair, error) {
	const op = "session.Tokens"

	access, _, err := s.kv.Get(ctx, KeyAccess)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	refresh, _, err := s.kv.Get(ctx, KeyRefresh)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// AccessToken возвращает access-токен или "" если его нет.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, KeyAccess)
	if err != nil {
		return "", fmt.Errorf("session.AccessToken: %w", err)
	}

	return v, nil
}

// RefreshToken возвращает refresh-токен или "" если его нет.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, KeyRefresh)
	if err != nil {
		return "", fmt.Errorf("session.RefreshToken: %w", err)
	}

	return v, nil
}

// SetPair сохраняет обе части пары одной записью (вход, ротация refresh).
func (s *Session) SetPair(ctx context.Context, pair models.TokenPair) error {
	const op = "session.SetPair"

	if pair.Access == "" || pair.Refresh == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyToken)
	}

	if err := s.kv.Put(ctx, map[string]string{KeyAccess: pair.Access, KeyRefresh: pair.Refresh}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SetAccess заменяет только access-токен (успешный refresh).
func (s *Session) SetAccess(ctx context.Context, access string) error {
	const op = "session.SetAccess"

	if access == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyToken)
	}

	if err := s.kv.Put(ctx, map[string]string{KeyAccess: access}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Clear удаляет оба токена (неудачный refresh).
func (s *Session) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyAccess, KeyRefresh); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}

	return nil
}

// Logout удаляет токены и данные пользователя. Отметки напоминаний остаются.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyAccess, KeyRefresh, KeyUser); err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}

	return nil
}

// HasSession сообщает, сохранён ли access-токен.
func (s *Session) HasSession(ctx context.Context) (bool, error) {
	v, err := s.AccessToken(ctx)
	if err != nil {
		return false, err
	}

	return v != "", nil
}

// SetUser сохраняет данные пользователя JSON-объектом под usuario_dados.
func (s *Session) SetUser(ctx context.Context, u models.User) error {
	const op = "session.SetUser"

	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.kv.Put(ctx, map[string]string{KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// User возвращает сохранённые данные пользователя и признак их наличия.
func (s *Session) User(ctx context.Context) (models.User, bool, error) {
	const op = "session.User"

	raw, ok, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return models.User{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok || raw == "" {
		return models.User{}, false, nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return models.User{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return u, true, nil
}

// Acks — отметки выполненных напоминаний.
func (s *Session) Acks() *Acks { return s.acks }

// Close закрывает нижележащее хранилище.
func (s *Session) Close() error { return s.kv.Close() }
