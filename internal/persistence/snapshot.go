// Package persistence восстанавливает состояние приложения из KV и асинхронно сохраняет изменения.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/storage"
)

// Имена ключей без префикса. Структуры хранятся как JSON, тема и размер шрифта - как скаляры.
const (
	KeyStories     = "stories"
	KeyCommunity   = "community"
	KeyUser        = "user"
	KeyLanguage    = "lang"
	KeyTheme       = "theme"
	KeyFontSize    = "font_size"
	KeyCustomIdeas = "custom_ideas"
	KeyFontFamily  = "font_family"
	KeyModel       = "model"
)

// Snapshot - полное сохраняемое состояние.
type Snapshot struct {
	Stories     []domain.Story
	Community   []domain.Story
	User        *domain.User
	Language    domain.Language
	DarkMode    bool
	FontSize    int
	FontFamily  domain.FontFamily
	Model       domain.AIModel
	CustomIdeas []domain.IdeaPrompt
}

// DefaultSnapshot - состояние первого запуска.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Stories:     []domain.Story{},
		Community:   []domain.Story{},
		Language:    domain.DefaultLanguage,
		FontSize:    domain.DefaultFontSize,
		FontFamily:  domain.DefaultFontFamily,
		Model:       domain.DefaultModel,
		CustomIdeas: []domain.IdeaPrompt{},
	}
}

// Load читает каждый ключ независимо. Отсутствующий или испорченный ключ
// заменяется значением по умолчанию, старт приложения не прерывается.
func Load(ctx context.Context, kv storage.KV, logger *zap.Logger) Snapshot {
	l := &loader{ctx: ctx, kv: kv, logger: logger.Named("Persistence")}
	snap := DefaultSnapshot()

	if stories, ok := loadJSON[[]domain.Story](l, KeyStories); ok && stories != nil {
		snap.Stories = stories
	}
	if community, ok := loadJSON[[]domain.Story](l, KeyCommunity); ok && community != nil {
		snap.Community = community
	}
	if user, ok := loadJSON[domain.User](l, KeyUser); ok && user.ID != "" {
		snap.User = &user
	}
	if ideas, ok := loadJSON[[]domain.IdeaPrompt](l, KeyCustomIdeas); ok && ideas != nil {
		snap.CustomIdeas = ideas
	}

	if raw, ok := l.raw(KeyLanguage); ok {
		if lang, err := domain.ParseLanguage(raw); err == nil {
			snap.Language = lang
		} else {
			l.corrupt(KeyLanguage, err)
		}
	}
	if raw, ok := l.raw(KeyTheme); ok {
		if dark, err := strconv.ParseBool(raw); err == nil {
			snap.DarkMode = dark
		} else {
			l.corrupt(KeyTheme, err)
		}
	}
	if raw, ok := l.raw(KeyFontSize); ok {
		if size, err := strconv.Atoi(raw); err == nil {
			snap.FontSize = domain.ClampFontSize(size)
		} else {
			l.corrupt(KeyFontSize, err)
		}
	}
	if raw, ok := l.raw(KeyFontFamily); ok {
		if family, err := domain.ParseFontFamily(raw); err == nil {
			snap.FontFamily = family
		} else {
			l.corrupt(KeyFontFamily, err)
		}
	}
	if raw, ok := l.raw(KeyModel); ok {
		if model, err := domain.ParseAIModel(raw); err == nil {
			snap.Model = model
		} else {
			l.corrupt(KeyModel, err)
		}
	}

	l.logger.Debug("State loaded",
		zap.Int("stories", len(snap.Stories)),
		zap.Int("community", len(snap.Community)),
		zap.Int("customIdeas", len(snap.CustomIdeas)),
		zap.String("lang", string(snap.Language)),
	)
	return snap
}

type loader struct {
	ctx    context.Context
	kv     storage.KV
	logger *zap.Logger
}

func (l *loader) raw(name string) (string, bool) {
	value, err := l.kv.Get(l.ctx, storage.Key(name))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Error("Failed to read persisted key, using default", zap.String("key", name), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

func (l *loader) corrupt(name string, err error) {
	l.logger.Warn("Persisted value is corrupt, using default", zap.String("key", name), zap.Error(err))
}

func loadJSON[T any](l *loader, name string) (T, bool) {
	var out T
	raw, ok := l.raw(name)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		l.corrupt(name, err)
		var zero T
		return zero, false
	}
	return out, true
}
