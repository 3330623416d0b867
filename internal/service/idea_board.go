package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/persistence"
)

// StoryStarter создает историю из затравки.
type StoryStarter interface {
	CreateStory(ctx context.Context, seedPrompt string) (domain.Story, error)
}

var _ StoryStarter = (*StoryStore)(nil)

// generatedIdea - ожидаемая форма JSON-ответа модели.
type generatedIdea struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

// IdeaBoard объединяет пользовательские идеи (новые первыми) со встроенным каталогом.
type IdeaBoard struct {
	mu         sync.RWMutex
	custom     []domain.IdeaPrompt
	generating atomic.Bool

	generator Generator
	persister Persister
	profile   Profile
	starter   StoryStarter
	logger    *zap.Logger
	newID     func() string
}

// NewIdeaBoard создает доску идей из восстановленных пользовательских идей.
func NewIdeaBoard(custom []domain.IdeaPrompt, generator Generator, persister Persister, profile Profile, starter StoryStarter, logger *zap.Logger) *IdeaBoard {
	b := &IdeaBoard{
		custom:    make([]domain.IdeaPrompt, len(custom)),
		generator: generator,
		persister: persister,
		profile:   profile,
		starter:   starter,
		logger:    logger.Named("IdeaBoard"),
		newID:     uuid.NewString,
	}
	copy(b.custom, custom)
	return b
}

// All возвращает пользовательские идеи, затем каталог.
func (b *IdeaBoard) All() []domain.IdeaPrompt {
	b.mu.RLock()
	defer b.mu.RUnlock()
	catalog := domain.IdeaCatalog()
	out := make([]domain.IdeaPrompt, 0, len(b.custom)+len(catalog))
	out = append(out, b.custom...)
	return append(out, catalog...)
}

// Custom возвращает только пользовательские идеи.
func (b *IdeaBoard) Custom() []domain.IdeaPrompt {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.IdeaPrompt, len(b.custom))
	copy(out, b.custom)
	return out
}

// Find ищет идею среди пользовательских и в каталоге.
func (b *IdeaBoard) Find(id string) (domain.IdeaPrompt, error) {
	for _, idea := range b.All() {
		if idea.ID == id {
			return idea, nil
		}
	}
	return domain.IdeaPrompt{}, fmt.Errorf("%w: %s", domain.ErrIdeaNotFound, id)
}

// Add добавляет идею в начало списка. Пустые заголовок и категория получают значения по умолчанию.
func (b *IdeaBoard) Add(title, category, prompt string) (domain.IdeaPrompt, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.IdeaPrompt{}, domain.ErrEmptyInput
	}
	idea := b.withDefaults(domain.IdeaPrompt{
		ID:       b.newID(),
		Title:    strings.TrimSpace(title),
		Category: strings.TrimSpace(category),
		Prompt:   prompt,
	})
	b.prepend(idea)
	return idea, nil
}

// Remove удаляет пользовательскую идею. Идеи каталога удалить нельзя.
func (b *IdeaBoard) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := make([]domain.IdeaPrompt, 0, len(b.custom))
	for _, idea := range b.custom {
		if idea.ID != id {
			next = append(next, idea)
		}
	}
	if len(next) == len(b.custom) {
		return fmt.Errorf("%w: %s", domain.ErrIdeaNotFound, id)
	}
	b.custom = next
	b.persister.PutJSON(persistence.KeyCustomIdeas, b.custom)
	return nil
}

// Generate просит модель придумать идею и добавляет ее в начало списка.
// Отсутствующие поля ответа заменяются значениями по умолчанию для текущего языка.
func (b *IdeaBoard) Generate(ctx context.Context) (domain.IdeaPrompt, error) {
	if !b.generating.CompareAndSwap(false, true) {
		return domain.IdeaPrompt{}, domain.ErrGenerationInProgress
	}
	defer b.generating.Store(false)

	texts := b.profile.Texts()
	raw, err := b.generator.GenerateJSON(ctx, domain.DefaultModel, texts.IdeaPrompt)
	if err != nil {
		b.logger.Error("Idea generation failed", zap.Error(err))
		return domain.IdeaPrompt{}, fmt.Errorf("idea generation failed: %w", err)
	}

	var parsed generatedIdea
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &parsed); err != nil {
		b.logger.Error("Idea response is not valid JSON", zap.String("response", raw), zap.Error(err))
		return domain.IdeaPrompt{}, fmt.Errorf("idea response is not valid JSON: %w", err)
	}

	idea := b.withDefaults(domain.IdeaPrompt{
		ID:       b.newID(),
		Title:    strings.TrimSpace(parsed.Title),
		Category: strings.TrimSpace(parsed.Category),
		Prompt:   strings.TrimSpace(parsed.Prompt),
	})
	b.prepend(idea)
	b.logger.Info("Idea generated", zap.String("ideaID", idea.ID), zap.String("title", idea.Title))
	return idea, nil
}

// StartStory создает новую историю с промптом идеи в качестве затравки.
func (b *IdeaBoard) StartStory(ctx context.Context, ideaID string) (domain.Story, error) {
	idea, err := b.Find(ideaID)
	if err != nil {
		return domain.Story{}, err
	}
	return b.starter.CreateStory(ctx, idea.Prompt)
}

func (b *IdeaBoard) withDefaults(idea domain.IdeaPrompt) domain.IdeaPrompt {
	texts := b.profile.Texts()
	if idea.Title == "" {
		idea.Title = texts.UntitledIdea
	}
	if idea.Category == "" {
		idea.Category = texts.GeneralCategory
	}
	if idea.Prompt == "" {
		idea.Prompt = texts.EmptyIdeaPrompt
	}
	return idea
}

func (b *IdeaBoard) prepend(idea domain.IdeaPrompt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := make([]domain.IdeaPrompt, 0, len(b.custom)+1)
	next = append(next, idea)
	b.custom = append(next, b.custom...)
	b.persister.PutJSON(persistence.KeyCustomIdeas, b.custom)
}
