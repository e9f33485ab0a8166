package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/pribylovaa/controlae/internal/pkg/log"
	"github.com/pribylovaa/controlae/internal/storage"
)

// Acks — множество id напоминаний, отмеченных пользователем как выполненные.
// Хранится JSON-массивом чисел под ключом lembretes_done.
type Acks struct {
	mu sync.Mutex
	kv storage.KV
}

// List возвращает отсортированные id. Повреждённое значение читается как
// пустое множество.
func (a *Acks) List(ctx context.Context) ([]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	return sorted(set), nil
}

// Has сообщает, отмечено ли напоминание id.
func (a *Acks) Has(ctx context.Context, id int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.load(ctx)
	if err != nil {
		return false, err
	}

	_, ok := set[id]
	return ok, nil
}

// Toggle переключает отметку и возвращает новое состояние.
func (a *Acks) Toggle(ctx context.Context, id int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.load(ctx)
	if err != nil {
		return false, err
	}

	_, done := set[id]
	if done {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}

	if err := a.save(ctx, set); err != nil {
		return false, err
	}

	return !done, nil
}

// Set явно ставит или снимает отметку.
func (a *Acks) Set(ctx context.Context, id int64, done bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.load(ctx)
	if err != nil {
		return err
	}

	if done {
		set[id] = struct{}{}
	} else {
		delete(set, id)
	}

	return a.save(ctx, set)
}

func (a *Acks) load(ctx context.Context) (map[int64]struct{}, error) {
	const op = "session.Acks.load"

	raw, ok, err := a.kv.Get(ctx, KeyAcks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	set := make(map[int64]struct{})
	if !ok || raw == "" {
		return set, nil
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.From(ctx).Warn("acks_corrupt",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return set, nil
	}

	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set, nil
}

func (a *Acks) save(ctx context.Context, set map[int64]struct{}) error {
	const op = "session.Acks.save"

	raw, err := json.Marshal(sorted(set))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.kv.Put(ctx, map[string]string{KeyAcks: string(raw)}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func sorted(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
