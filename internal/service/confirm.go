package service

import "context"

// Confirmer запрашивает явное согласие перед необратимыми операциями.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc позволяет использовать функцию как Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

var (
	// AlwaysConfirm соглашается без вопросов (флаг --yes).
	AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })
	// NeverConfirm всегда отказывает.
	NeverConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
)
