// Package storage - ключ-значение хранилище для локального состояния приложения.
package storage

import (
	"context"
	"errors"
)

// Prefix - пространство имен всех ключей приложения.
const Prefix = "chatfic_"

// ErrNotFound возвращается Get, если ключа нет.
var ErrNotFound = errors.New("storage: key not found")

// KV - минимальное строковое хранилище. Реализации безопасны для конкурентного использования.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key добавляет префикс приложения к имени ключа.
func Key(name string) string {
	return Prefix + name
}
