// file - хранилище в JSON-файле на диске (session.backend: file).
//
// Файл — один JSON-объект строка→строка с правами 0600. Запись идёт через
// временный файл в той же директории и rename, поэтому читатель никогда не
// видит наполовину записанный объект.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pribylovaa/controlae/internal/storage"
)

// ErrCorrupt — содержимое файла не является JSON-объектом строк.
var ErrCorrupt = errors.New("session file corrupt")

type Storage struct {
	mu     sync.Mutex
	path   string
	closed bool
}

var _ storage.KV = (*Storage)(nil)

// New создаёт хранилище по пути path; директория создаётся с правами 0700.
// Сам файл появляется при первой записи.
func New(path string) (*Storage, error) {
	const op = "storage.file.New"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{path: path}, nil
}

// Path возвращает путь файла сессии.
func (s *Storage) Path() string { return s.path }

func (s *Storage) Get(_ context.Context, key string) (string, bool, error) {
	const op = "storage.file.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", false, storage.ErrClosed
	}

	data, err := s.load()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	v, ok := data[key]
	return v, ok, nil
}

func (s *Storage) Put(_ context.Context, kv map[string]string) error {
	const op = "storage.file.Put"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	data, err := s.loadForWrite()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for k, v := range kv {
		data[k] = v
	}

	if err := s.save(data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Delete(_ context.Context, keys ...string) error {
	const op = "storage.file.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	data, err := s.loadForWrite()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	changed := false
	for _, k := range keys {
		if _, ok := data[k]; ok {
			delete(data, k)
			changed = true
		}
	}

	if !changed {
		return nil
	}

	if err := s.save(data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// load читает файл; отсутствие файла — пустое хранилище.
func (s *Storage) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}

		return nil, err
	}

	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return data, nil
}

// loadForWrite как load, но повреждённый файл заменяется пустым объектом:
// запись (в том числе Clear при выходе) не должна блокироваться мусором на диске.
func (s *Storage) loadForWrite() (map[string]string, error) {
	data, err := s.load()
	if errors.Is(err, ErrCorrupt) {
		return map[string]string{}, nil
	}

	return data, err
}

func (s *Storage) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, s.path)
}
