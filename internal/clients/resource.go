package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/controlae/internal/models"
)

// Resource — CRUD коллекции DRF-ViewSet: list, retrieve, create, update, destroy.
// In проверяется локально до отправки.
type Resource[T any, In models.Validator] struct {
	rest *rest
	path string
}

func newResource[T any, In models.Validator](r *rest, path string) *Resource[T, In] {
	return &Resource[T, In]{rest: r, path: path}
}

func (c *Resource[T, In]) List(ctx context.Context) ([]T, error) {
	items, err := list[T](ctx, c.rest, c.path, nil)
	if err != nil {
		return nil, fmt.Errorf("clients.List %s: %w", c.path, err)
	}

	return items, nil
}

func (c *Resource[T, In]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	if err := c.rest.do(ctx, http.MethodGet, itemPath(c.path, id), nil, nil, &out); err != nil {
		return out, fmt.Errorf("clients.Get %s: %w", c.path, err)
	}

	return out, nil
}

func (c *Resource[T, In]) Create(ctx context.Context, in In) (T, error) {
	var out T
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("clients.Create %s: %w", c.path, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, c.path, nil, in, &out); err != nil {
		return out, fmt.Errorf("clients.Create %s: %w", c.path, err)
	}

	return out, nil
}

func (c *Resource[T, In]) Update(ctx context.Context, id int64, in In) (T, error) {
	var out T
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("clients.Update %s: %w", c.path, err)
	}
	if err := c.rest.do(ctx, http.MethodPut, itemPath(c.path, id), nil, in, &out); err != nil {
		return out, fmt.Errorf("clients.Update %s: %w", c.path, err)
	}

	return out, nil
}

func (c *Resource[T, In]) Delete(ctx context.Context, id int64) error {
	if err := c.rest.do(ctx, http.MethodDelete, itemPath(c.path, id), nil, nil, nil); err != nil {
		return fmt.Errorf("clients.Delete %s: %w", c.path, err)
	}

	return nil
}
