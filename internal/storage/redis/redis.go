// redis - хранилище сессии в Redis (session.backend: redis).
//
// Состояние одного профиля — один Redis Hash под ключом <prefix><profile>,
// поля хэша — ключи KV. Так несколько машин/процессов с общим Redis
// разделяют одну сессию.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pribylovaa/controlae/internal/storage"
)

const defaultPrefix = "controlae:session:"

type Storage struct {
	rdb *goredis.Client
	key string
}

var _ storage.KV = (*Storage)(nil)

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "controlae:session:".
func New(ctx context.Context, redisURL, prefix, profile string) (*Storage, error) {
	const op = "storage.redis.New"

	if prefix == "" {
		prefix = defaultPrefix
	}
	if profile == "" {
		profile = "default"
	}

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := goredis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{rdb: rdb, key: prefix + profile}, nil
}

// Key возвращает имя Redis Hash текущего профиля.
func (s *Storage) Key() string { return s.key }

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}

		return "", false, wrap("storage.redis.Get", err)
	}

	return v, true, nil
}

// Put пишет все поля одной транзакцией MULTI/EXEC.
func (s *Storage) Put(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.key, kv)

	if _, err := pipe.Exec(ctx); err != nil {
		return wrap("storage.redis.Put", err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := s.rdb.HDel(ctx, s.key, keys...).Err(); err != nil {
		return wrap("storage.redis.Delete", err)
	}

	return nil
}

func (s *Storage) Close() error { return s.rdb.Close() }

func wrap(op string, err error) error {
	if errors.Is(err, goredis.ErrClosed) {
		return fmt.Errorf("%s: %w", op, storage.ErrClosed)
	}

	return fmt.Errorf("%s: %w", op, err)
}
