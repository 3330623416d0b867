package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/persistence"
)

// implicitTitleRunes - длина заголовка, взятого из первого сообщения.
const implicitTitleRunes = 20

// StoryStore хранит истории и коллекцию сообщества в памяти.
// Каждая мутация заменяет коллекцию целиком под мьютексом и ставит ее на сохранение.
// Одновременно выполняется не больше одной генерации на весь стор.
type StoryStore struct {
	mu        sync.RWMutex
	stories   []domain.Story // новые первыми
	community []domain.Story // новые первыми
	activeID  string

	generating atomic.Bool

	generator Generator
	persister Persister
	confirmer Confirmer
	profile   Profile
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// StoreOption настраивает StoryStore.
type StoreOption func(*StoryStore)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) StoreOption {
	return func(s *StoryStore) { s.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *StoryStore) { s.newID = newID }
}

// NewStoryStore создает стор из восстановленных коллекций.
func NewStoryStore(
	stories, community []domain.Story,
	generator Generator,
	persister Persister,
	confirmer Confirmer,
	profile Profile,
	logger *zap.Logger,
	opts ...StoreOption,
) *StoryStore {
	s := &StoryStore{
		stories:   domain.CloneStories(stories),
		community: domain.CloneStories(community),
		generator: generator,
		persister: persister,
		confirmer: confirmer,
		profile:   profile,
		logger:    logger.Named("StoryStore"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if s.stories == nil {
		s.stories = []domain.Story{}
	}
	if s.community == nil {
		s.community = []domain.Story{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsGenerating сообщает, выполняется ли сейчас генерация.
func (s *StoryStore) IsGenerating() bool {
	return s.generating.Load()
}

// Stories возвращает копию приватной коллекции.
func (s *StoryStore) Stories() []domain.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneStories(s.stories)
}

// Community возвращает копию коллекции сообщества.
func (s *StoryStore) Community() []domain.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneStories(s.community)
}

// Story возвращает копию истории по ID.
func (s *StoryStore) Story(id string) (domain.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	return s.stories[idx].Clone(), nil
}

// ActiveStory возвращает выбранную историю, если она есть.
func (s *StoryStore) ActiveStory() (domain.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(s.activeID)
	if idx < 0 {
		return domain.Story{}, false
	}
	return s.stories[idx].Clone(), true
}

// SetActive выбирает историю. Пустой id снимает выбор.
func (s *StoryStore) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	s.activeID = id
	return nil
}

// CreateStory создает историю и делает ее активной. Если seedPrompt не пуст,
// добавляет его как первое сообщение пользователя и генерирует первый ответ.
// При занятом генераторе история все равно создается, но только с затравкой,
// и вместе с ней возвращается ErrGenerationInProgress.
func (s *StoryStore) CreateStory(ctx context.Context, seedPrompt string) (domain.Story, error) {
	texts := s.profile.Texts()
	story := s.newStory(texts.NewStoryTitle)

	acquired := false
	if seedPrompt != "" {
		story.Messages = append(story.Messages, s.newMessage(domain.RoleUser, seedPrompt))
		acquired = s.generating.CompareAndSwap(false, true)
	}

	s.mu.Lock()
	s.prependLocked(story)
	s.activeID = story.ID
	s.persistStoriesLocked()
	s.mu.Unlock()

	s.logger.Info("Story created", zap.String("storyID", story.ID), zap.Bool("seeded", seedPrompt != ""))

	if seedPrompt == "" {
		return story.Clone(), nil
	}
	if !acquired {
		return story.Clone(), domain.ErrGenerationInProgress
	}
	return s.completeGeneration(ctx, story.ID, story.Messages)
}

// SendMessage добавляет сообщение пользователя и ответ модели.
// Пустой storyID создает новую историю с заголовком из начала текста.
func (s *StoryStore) SendMessage(ctx context.Context, storyID, text string) (domain.Story, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Story{}, domain.ErrEmptyInput
	}
	if !s.generating.CompareAndSwap(false, true) {
		s.logger.Debug("SendMessage ignored: generation in progress", zap.String("storyID", storyID))
		return domain.Story{}, domain.ErrGenerationInProgress
	}

	userMsg := s.newMessage(domain.RoleUser, text)

	s.mu.Lock()
	if storyID == "" {
		story := s.newStory(implicitTitle(text))
		s.prependLocked(story)
		s.activeID = story.ID
		storyID = story.ID
		s.logger.Info("Story created from first message", zap.String("storyID", storyID))
	}
	idx := s.indexLocked(storyID)
	if idx < 0 {
		s.mu.Unlock()
		s.generating.Store(false)
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	story := s.stories[idx].Clone()
	story.Messages = append(story.Messages, userMsg)
	story.UpdatedAt = s.nowMillis()
	s.replaceLocked(idx, story)
	s.persistStoriesLocked()
	s.mu.Unlock()

	return s.completeGeneration(ctx, storyID, story.Messages)
}

// RegenerateMessage отбрасывает сообщение index и все последующие, затем генерирует новый ответ
// по оставшейся истории.
func (s *StoryStore) RegenerateMessage(ctx context.Context, storyID string, index int) (domain.Story, error) {
	if !s.generating.CompareAndSwap(false, true) {
		s.logger.Debug("RegenerateMessage ignored: generation in progress", zap.String("storyID", storyID))
		return domain.Story{}, domain.ErrGenerationInProgress
	}

	s.mu.Lock()
	idx := s.indexLocked(storyID)
	if idx < 0 {
		s.mu.Unlock()
		s.generating.Store(false)
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	story := s.stories[idx].Clone()
	if index < 0 || index > len(story.Messages) {
		s.mu.Unlock()
		s.generating.Store(false)
		return domain.Story{}, fmt.Errorf("%w: %d not in [0, %d]", domain.ErrIndexOutOfRange, index, len(story.Messages))
	}
	story.Messages = story.Messages[:index:index]
	story.UpdatedAt = s.nowMillis()
	s.replaceLocked(idx, story)
	s.persistStoriesLocked()
	s.mu.Unlock()

	s.logger.Info("Regenerating from message", zap.String("storyID", storyID), zap.Int("index", index))
	return s.completeGeneration(ctx, storyID, story.Messages)
}

// EditMessage заменяет текст сообщения. Генерация не запускается.
func (s *StoryStore) EditMessage(storyID, msgID, content string) (domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, story, err := s.findMessageLocked(storyID, msgID)
	if err != nil {
		return domain.Story{}, err
	}
	story.Messages[story.MessageIndex(msgID)].Content = content
	story.UpdatedAt = s.nowMillis()
	s.replaceLocked(idx, story)
	s.persistStoriesLocked()
	return story.Clone(), nil
}

// DeleteMessage удаляет одно сообщение после подтверждения. Отказ возвращает ErrNotConfirmed.
func (s *StoryStore) DeleteMessage(ctx context.Context, storyID, msgID string) (domain.Story, error) {
	s.mu.RLock()
	_, _, err := s.findMessageLocked(storyID, msgID)
	s.mu.RUnlock()
	if err != nil {
		return domain.Story{}, err
	}

	if !s.confirmer.Confirm(ctx, s.profile.Texts().ConfirmDeleteMessage) {
		return domain.Story{}, domain.ErrNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Состояние могло измениться, пока ждали подтверждения.
	idx, story, err := s.findMessageLocked(storyID, msgID)
	if err != nil {
		return domain.Story{}, err
	}
	pos := story.MessageIndex(msgID)
	story.Messages = append(story.Messages[:pos:pos], story.Messages[pos+1:]...)
	story.UpdatedAt = s.nowMillis()
	s.replaceLocked(idx, story)
	s.persistStoriesLocked()
	return story.Clone(), nil
}

// DeleteStory удаляет историю из обеих коллекций после подтверждения.
func (s *StoryStore) DeleteStory(ctx context.Context, storyID string) error {
	s.mu.RLock()
	exists := s.indexLocked(storyID) >= 0
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}

	if !s.confirmer.Confirm(ctx, s.profile.Texts().ConfirmDeleteStory) {
		return domain.ErrNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories = withoutStory(s.stories, storyID)
	s.community = withoutStory(s.community, storyID)
	if s.activeID == storyID {
		s.activeID = ""
	}
	s.persistStoriesLocked()
	s.persistCommunityLocked()
	s.logger.Info("Story deleted", zap.String("storyID", storyID))
	return nil
}

// RenameStory меняет заголовок. Пустой после обрезки пробелов заголовок игнорируется.
func (s *StoryStore) RenameStory(storyID, title string) (domain.Story, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Story{}, domain.ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(storyID)
	if idx < 0 {
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	story := s.stories[idx].Clone()
	story.Title = title
	story.UpdatedAt = s.nowMillis()
	s.replaceLocked(idx, story)
	s.persistStoriesLocked()
	return story.Clone(), nil
}

// TogglePublish переключает публикацию. Публикация кладет снимок истории в начало коллекции
// сообщества (заменяя прежний), снятие с публикации удаляет его.
func (s *StoryStore) TogglePublish(storyID string) (domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(storyID)
	if idx < 0 {
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	story := s.stories[idx].Clone()
	story.IsPublished = !story.IsPublished
	s.replaceLocked(idx, story)

	community := withoutStory(s.community, storyID)
	if story.IsPublished {
		community = append([]domain.Story{story.Clone()}, community...)
	}
	s.community = community

	s.persistStoriesLocked()
	s.persistCommunityLocked()
	s.logger.Info("Story publication toggled", zap.String("storyID", storyID), zap.Bool("published", story.IsPublished))
	return story.Clone(), nil
}

// completeGeneration вызывается с захваченным флагом генерации и освобождает его.
func (s *StoryStore) completeGeneration(ctx context.Context, storyID string, history []domain.Message) (domain.Story, error) {
	defer s.generating.Store(false)

	model := s.profile.Model()
	result := s.generator.Generate(ctx, history, model)
	if result.Err != nil {
		s.logger.Warn("Generation fell back to default text",
			zap.String("storyID", storyID),
			zap.Stringer("outcome", result.Outcome),
			zap.Int("attempts", result.Attempts),
			zap.Error(result.Err),
		)
	}
	reply := s.newMessage(domain.RoleAssistant, result.Text)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(storyID)
	if idx < 0 {
		s.logger.Warn("Generated reply dropped: story no longer exists", zap.String("storyID", storyID))
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	story := s.stories[idx].Clone()
	story.Messages = append(story.Messages, reply)
	story.UpdatedAt = s.nowMillis()
	s.replaceLocked(idx, story)
	s.persistStoriesLocked()
	return story.Clone(), nil
}

func (s *StoryStore) newStory(title string) domain.Story {
	texts := s.profile.Texts()
	author := texts.Anonymous
	authorID := domain.AnonymousAuthorID
	if user := s.profile.User(); user != nil {
		if user.Name != "" {
			author = user.Name
		}
		if user.ID != "" {
			authorID = user.ID
		}
	}
	model := s.profile.Model()
	return domain.Story{
		ID:             s.newID(),
		Title:          title,
		Universe:       domain.DefaultUniverse,
		Messages:       []domain.Message{},
		UpdatedAt:      s.nowMillis(),
		Author:         &author,
		AuthorID:       &authorID,
		PreferredModel: &model,
		IsPublished:    false,
	}
}

func (s *StoryStore) newMessage(role domain.Role, content string) domain.Message {
	return domain.Message{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.nowMillis(),
	}
}

func (s *StoryStore) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *StoryStore) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.stories {
		if s.stories[i].ID == id {
			return i
		}
	}
	return -1
}

// findMessageLocked возвращает индекс истории и ее копию, в которой есть сообщение msgID.
func (s *StoryStore) findMessageLocked(storyID, msgID string) (int, domain.Story, error) {
	idx := s.indexLocked(storyID)
	if idx < 0 {
		return -1, domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	story := s.stories[idx].Clone()
	if story.MessageIndex(msgID) < 0 {
		return -1, domain.Story{}, fmt.Errorf("%w: %s", domain.ErrMessageNotFound, msgID)
	}
	return idx, story, nil
}

// replaceLocked заменяет коллекцию новой копией с обновленной историей.
func (s *StoryStore) replaceLocked(idx int, story domain.Story) {
	next := make([]domain.Story, len(s.stories))
	copy(next, s.stories)
	next[idx] = story
	s.stories = next
}

func (s *StoryStore) prependLocked(story domain.Story) {
	next := make([]domain.Story, 0, len(s.stories)+1)
	next = append(next, story)
	next = append(next, s.stories...)
	s.stories = next
}

func (s *StoryStore) persistStoriesLocked() {
	s.persister.PutJSON(persistence.KeyStories, s.stories)
}

func (s *StoryStore) persistCommunityLocked() {
	s.persister.PutJSON(persistence.KeyCommunity, s.community)
}

func withoutStory(stories []domain.Story, id string) []domain.Story {
	out := make([]domain.Story, 0, len(stories))
	for _, st := range stories {
		if st.ID != id {
			out = append(out, st)
		}
	}
	return out
}

// implicitTitle берет первые 20 символов текста и добавляет многоточие.
func implicitTitle(text string) string {
	runes := []rune(text)
	if len(runes) > implicitTitleRunes {
		runes = runes[:implicitTitleRunes]
	}
	return string(runes) + "..."
}
