package service

import (
	"context"

	"chatfic/internal/domain"
	"chatfic/internal/generation"
	"chatfic/internal/i18n"
	"chatfic/internal/persistence"
)

// Generator - клиент генерации текста.
type Generator interface {
	Generate(ctx context.Context, history []domain.Message, model domain.AIModel) generation.Result
	GenerateJSON(ctx context.Context, model domain.AIModel, prompt string) (string, error)
}

// Persister ставит сохранение изменений в очередь без ожидания результата.
type Persister interface {
	Put(name, value string)
	PutJSON(name string, v any)
	Remove(name string)
}

// Profile - текущие настройки, нужные стору при создании историй и генерации.
type Profile interface {
	Texts() i18n.Texts
	User() *domain.User
	Model() domain.AIModel
}

var (
	_ Generator = (*generation.Client)(nil)
	_ Persister = (*persistence.Syncer)(nil)
	_ Profile   = (*Settings)(nil)
)
