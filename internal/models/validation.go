package models

import (
	"errors"
	"sort"
	"strings"
)

// ErrValidation — полезная нагрузка не прошла локальную проверку.
var ErrValidation = errors.New("validation failed")

// ValidationError — ошибки по полям (имя поля API → сообщение пользователю).
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validator — полезная нагрузка с локальной проверкой перед отправкой.
type Validator interface {
	Validate() error
}

// checker копит ошибки полей; первая ошибка поля выигрывает.
type checker struct {
	fields map[string]string
}

func (c *checker) check(ok bool, field, msg string) {
	if ok {
		return
	}
	if c.fields == nil {
		c.fields = make(map[string]string)
	}
	if _, exists := c.fields[field]; !exists {
		c.fields[field] = msg
	}
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}

	return &ValidationError{Fields: c.fields}
}

func invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
