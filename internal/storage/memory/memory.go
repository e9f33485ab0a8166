// memory - хранилище в памяти процесса; используется в тестах и для
// одноразовых сессий (session.backend: memory).
package memory

import (
	"context"
	"sync"

	"github.com/pribylovaa/controlae/internal/storage"
)

type Storage struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

var _ storage.KV = (*Storage)(nil)

func New() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, storage.ErrClosed
	}

	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Storage) Put(_ context.Context, kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	for k, v := range kv {
		s.data[k] = v
	}

	return nil
}

func (s *Storage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	for _, k := range keys {
		delete(s.data, k)
	}

	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
