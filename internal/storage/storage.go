// storage - контракт персистентного хранилища клиентского состояния
// (пара токенов, данные пользователя, отметки напоминаний).
package storage

//go:generate mockgen -destination=../mocks/mock_storage.go -package=mocks github.com/pribylovaa/controlae/internal/storage KV

import (
	"context"
	"errors"
)

// ErrClosed — операция над закрытым хранилищем.
var ErrClosed = errors.New("storage closed")

// KV — плоское строковое хранилище ключ/значение.
//
// Put применяет все пары атомарно: после успешного вызова наблюдатель
// видит либо все новые значения, либо (при ошибке) ни одного.
type KV interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put записывает набор пар одним действием.
	Put(ctx context.Context, kv map[string]string) error
	// Delete удаляет ключи; отсутствующие ключи игнорируются.
	Delete(ctx context.Context, keys ...string) error
	// Close освобождает ресурсы бэкенда.
	Close() error
}
