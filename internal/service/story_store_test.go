package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/generation"
	"chatfic/internal/i18n"
	"chatfic/internal/mocks"
	"chatfic/internal/persistence"
	"chatfic/internal/service"
	"chatfic/internal/storage"
)

func TestMain(m *testing.M) {
	// genai тянет go.opencensus.io, который запускает воркер статистики в init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeClock сдвигается на 1ms при каждом чтении.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

type fixture struct {
	store     *service.StoryStore
	settings  *service.Settings
	generator *mocks.MockGenerator
	confirmer *mocks.MockConfirmer
	kv        *storage.MemoryKV
	syncer    *persistence.Syncer
}

func newFixture(t *testing.T, stories, community []domain.Story) *fixture {
	t.Helper()
	kv := storage.NewMemoryKV()
	syncer := persistence.NewSyncer(kv, zap.NewNop())
	t.Cleanup(func() { _ = syncer.Close(context.Background()) })

	settings := service.NewSettings(persistence.DefaultSnapshot(), syncer, zap.NewNop())
	generator := mocks.NewMockGenerator(t)
	confirmer := mocks.NewMockConfirmer(t)
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}

	store := service.NewStoryStore(stories, community, generator, syncer, confirmer, settings, zap.NewNop(),
		service.WithClock(clock.Now),
		service.WithIDGenerator(sequentialIDs()),
	)
	return &fixture{store: store, settings: settings, generator: generator, confirmer: confirmer, kv: kv, syncer: syncer}
}

func success(text string) generation.Result {
	return generation.Result{Text: text, Outcome: generation.OutcomeSuccess, Attempts: 1}
}

func strPtr(s string) *string { return &s }

func storyWithMessages(id string, contents ...string) domain.Story {
	msgs := make([]domain.Message, 0, len(contents))
	for i, c := range contents {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msgs = append(msgs, domain.Message{ID: fmt.Sprintf("%s-m%d", id, i), Role: role, Content: c, Timestamp: int64(i)})
	}
	return domain.Story{ID: id, Title: "Título " + id, Universe: domain.DefaultUniverse, Messages: msgs, UpdatedAt: 1, Author: strPtr("Ana"), AuthorID: strPtr("u1")}
}

func TestStoryStore_CreateStory_Empty(t *testing.T) {
	f := newFixture(t, nil, nil)

	story, err := f.store.CreateStory(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "Nova Fanfic", story.Title)
	assert.Equal(t, domain.DefaultUniverse, story.Universe)
	assert.Empty(t, story.Messages)
	assert.False(t, story.IsPublished)
	require.NotNil(t, story.Author)
	assert.Equal(t, i18n.For(domain.LanguagePtBR).Anonymous, *story.Author)
	require.NotNil(t, story.AuthorID)
	assert.Equal(t, domain.AnonymousAuthorID, *story.AuthorID)
	require.NotNil(t, story.PreferredModel)
	assert.Equal(t, domain.DefaultModel, *story.PreferredModel)

	active, ok := f.store.ActiveStory()
	require.True(t, ok)
	assert.Equal(t, story.ID, active.ID)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoryStore_CreateStory_WithSeed(t *testing.T) {
	f := newFixture(t, nil, nil)
	const seed = "A hero wakes up"

	var createdAt int64
	f.generator.On("Generate", mock.Anything, mock.MatchedBy(func(h []domain.Message) bool {
		return len(h) == 1 && h[0].Role == domain.RoleUser && h[0].Content == seed
	}), domain.DefaultModel).Run(func(args mock.Arguments) {
		// Пока идет генерация, в истории только затравка.
		active, ok := f.store.ActiveStory()
		require.True(t, ok)
		require.Len(t, active.Messages, 1)
		assert.Equal(t, seed, active.Messages[0].Content)
		assert.True(t, f.store.IsGenerating())
		createdAt = active.UpdatedAt
	}).Return(success("The hero rises.")).Once()

	story, err := f.store.CreateStory(context.Background(), seed)
	require.NoError(t, err)

	require.Len(t, story.Messages, 2)
	assert.Equal(t, domain.RoleUser, story.Messages[0].Role)
	assert.Equal(t, seed, story.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, story.Messages[1].Role)
	assert.Equal(t, "The hero rises.", story.Messages[1].Content)
	assert.Greater(t, story.UpdatedAt, createdAt)
	assert.False(t, f.store.IsGenerating())
}

func TestStoryStore_NewestFirstAndAuthor(t *testing.T) {
	f := newFixture(t, nil, nil)
	user := f.settings.SignIn("Bia", "bia@example.com")
	require.NoError(t, f.settings.SetLanguage(domain.LanguageEnUS))

	first, err := f.store.CreateStory(context.Background(), "")
	require.NoError(t, err)
	second, err := f.store.CreateStory(context.Background(), "")
	require.NoError(t, err)

	stories := f.store.Stories()
	require.Len(t, stories, 2)
	assert.Equal(t, second.ID, stories[0].ID)
	assert.Equal(t, first.ID, stories[1].ID)
	assert.Equal(t, "New Fanfic", second.Title)
	assert.Equal(t, "Bia", *second.Author)
	assert.Equal(t, user.ID, *second.AuthorID)
}

func TestStoryStore_SendMessage(t *testing.T) {
	t.Run("appends user message and reply", func(t *testing.T) {
		f := newFixture(t, []domain.Story{storyWithMessages("s1", "início", "resposta")}, nil)
		f.generator.On("Generate", mock.Anything, mock.MatchedBy(func(h []domain.Message) bool {
			return len(h) == 3 && h[2].Content == "continue"
		}), domain.DefaultModel).Return(success("e então...")).Once()

		story, err := f.store.SendMessage(context.Background(), "s1", "continue")
		require.NoError(t, err)
		require.Len(t, story.Messages, 4)
		assert.Equal(t, domain.RoleUser, story.Messages[2].Role)
		assert.Equal(t, "e então...", story.Messages[3].Content)
		assert.Greater(t, story.UpdatedAt, int64(1))
	})

	t.Run("blank text is ignored", func(t *testing.T) {
		f := newFixture(t, []domain.Story{storyWithMessages("s1", "início")}, nil)

		_, err := f.store.SendMessage(context.Background(), "s1", "   \n")
		assert.ErrorIs(t, err, domain.ErrEmptyInput)

		story, err := f.store.Story("s1")
		require.NoError(t, err)
		assert.Len(t, story.Messages, 1)
	})

	t.Run("empty story id creates a story titled by the text", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		const text = "Era uma vez um dragão que colecionava xícaras"
		f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(success("ok")).Once()

		story, err := f.store.SendMessage(context.Background(), "", text)
		require.NoError(t, err)
		assert.Equal(t, "Era uma vez um dragã...", story.Title)
		assert.Len(t, story.Messages, 2)

		active, ok := f.store.ActiveStory()
		require.True(t, ok)
		assert.Equal(t, story.ID, active.ID)
	})

	t.Run("unknown story releases the generation flag", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.store.SendMessage(context.Background(), "missing", "oi")
		assert.ErrorIs(t, err, domain.ErrStoryNotFound)
		assert.False(t, f.store.IsGenerating())
	})

	t.Run("fallback text is still appended", func(t *testing.T) {
		f := newFixture(t, []domain.Story{storyWithMessages("s1")}, nil)
		busy := i18n.For(domain.LanguagePtBR).ServersBusy
		f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(generation.Result{
			Text:     busy,
			Outcome:  generation.OutcomeRetriesExhausted,
			Attempts: 3,
			Err:      generation.ErrRetriesExhausted,
		}).Once()

		story, err := f.store.SendMessage(context.Background(), "s1", "oi")
		require.NoError(t, err)
		require.Len(t, story.Messages, 2)
		assert.Equal(t, busy, story.Messages[1].Content)
	})
}

func TestStoryStore_SecondSendWhileGeneratingIsIgnored(t *testing.T) {
	f := newFixture(t, []domain.Story{storyWithMessages("s1")}, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(success("resposta")).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.store.SendMessage(context.Background(), "s1", "primeira")
	}()

	<-started
	assert.True(t, f.store.IsGenerating())
	_, err := f.store.SendMessage(context.Background(), "s1", "segunda")
	assert.ErrorIs(t, err, domain.ErrGenerationInProgress)
	_, err = f.store.RegenerateMessage(context.Background(), "s1", 0)
	assert.ErrorIs(t, err, domain.ErrGenerationInProgress)
	_, err = f.store.CreateStory(context.Background(), "semente")
	assert.ErrorIs(t, err, domain.ErrGenerationInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)

	story, err := f.store.Story("s1")
	require.NoError(t, err)
	require.Len(t, story.Messages, 2)
	assert.Equal(t, "primeira", story.Messages[0].Content)
	assert.Equal(t, "resposta", story.Messages[1].Content)

	// История, созданная во время генерации, содержит только затравку.
	stories := f.store.Stories()
	require.Len(t, stories, 2)
	require.Len(t, stories[0].Messages, 1)
	assert.Equal(t, "semente", stories[0].Messages[0].Content)
}

func TestStoryStore_RegenerateMessage(t *testing.T) {
	original := storyWithMessages("s1", "m0", "m1", "m2", "m3")

	for index := 0; index <= len(original.Messages); index++ {
		t.Run(fmt.Sprintf("index %d", index), func(t *testing.T) {
			f := newFixture(t, []domain.Story{original}, nil)
			f.generator.On("Generate", mock.Anything, mock.MatchedBy(func(h []domain.Message) bool {
				return cmp.Equal(h, original.Messages[:index])
			}), mock.Anything).Return(success("nova")).Once()

			story, err := f.store.RegenerateMessage(context.Background(), "s1", index)
			require.NoError(t, err)

			require.Len(t, story.Messages, index+1)
			assert.Equal(t, original.Messages[:index], story.Messages[:index])
			last := story.Messages[index]
			assert.Equal(t, domain.RoleAssistant, last.Role)
			assert.Equal(t, "nova", last.Content)
			for _, dropped := range original.Messages[index:] {
				assert.Equal(t, -1, story.MessageIndex(dropped.ID))
			}
		})
	}

	t.Run("out of range", func(t *testing.T) {
		f := newFixture(t, []domain.Story{original}, nil)
		_, err := f.store.RegenerateMessage(context.Background(), "s1", 5)
		assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
		_, err = f.store.RegenerateMessage(context.Background(), "s1", -1)
		assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
		assert.False(t, f.store.IsGenerating())

		story, err := f.store.Story("s1")
		require.NoError(t, err)
		assert.Equal(t, original.Messages, story.Messages)
	})
}

func TestStoryStore_EditMessage(t *testing.T) {
	original := storyWithMessages("s1", "m0", "m1", "m2")
	f := newFixture(t, []domain.Story{original}, nil)

	story, err := f.store.EditMessage("s1", "s1-m1", "editado")
	require.NoError(t, err)
	assert.Equal(t, "editado", story.Messages[1].Content)
	assert.Equal(t, original.Messages[0], story.Messages[0])
	assert.Equal(t, original.Messages[2], story.Messages[2])
	assert.Equal(t, original.Messages[1].ID, story.Messages[1].ID)
	assert.Greater(t, story.UpdatedAt, original.UpdatedAt)

	_, err = f.store.EditMessage("s1", "nope", "x")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoryStore_DeleteMessage(t *testing.T) {
	original := storyWithMessages("s1", "m0", "m1", "m2")

	t.Run("declined", func(t *testing.T) {
		f := newFixture(t, []domain.Story{original}, nil)
		f.confirmer.On("Confirm", mock.Anything, i18n.For(domain.LanguagePtBR).ConfirmDeleteMessage).Return(false).Once()

		_, err := f.store.DeleteMessage(context.Background(), "s1", "s1-m1")
		assert.ErrorIs(t, err, domain.ErrNotConfirmed)

		story, err := f.store.Story("s1")
		require.NoError(t, err)
		assert.Equal(t, original.Messages, story.Messages)
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, []domain.Story{original}, nil)
		f.confirmer.On("Confirm", mock.Anything, mock.Anything).Return(true).Once()

		story, err := f.store.DeleteMessage(context.Background(), "s1", "s1-m1")
		require.NoError(t, err)
		require.Len(t, story.Messages, 2)
		assert.Equal(t, "m0", story.Messages[0].Content)
		assert.Equal(t, "m2", story.Messages[1].Content)
	})

	t.Run("missing message does not prompt", func(t *testing.T) {
		f := newFixture(t, []domain.Story{original}, nil)
		_, err := f.store.DeleteMessage(context.Background(), "s1", "nope")
		assert.ErrorIs(t, err, domain.ErrMessageNotFound)
		f.confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})
}

func TestStoryStore_DeleteStory(t *testing.T) {
	published := storyWithMessages("s1", "m0")
	published.IsPublished = true
	other := storyWithMessages("s2", "x")

	t.Run("confirmed removes from both collections", func(t *testing.T) {
		f := newFixture(t, []domain.Story{published, other}, []domain.Story{published})
		require.NoError(t, f.store.SetActive("s1"))
		f.confirmer.On("Confirm", mock.Anything, i18n.For(domain.LanguagePtBR).ConfirmDeleteStory).Return(true).Once()

		require.NoError(t, f.store.DeleteStory(context.Background(), "s1"))

		_, err := f.store.Story("s1")
		assert.ErrorIs(t, err, domain.ErrStoryNotFound)
		assert.Empty(t, f.store.Community())
		_, ok := f.store.ActiveStory()
		assert.False(t, ok)
		assert.Len(t, f.store.Stories(), 1)
	})

	t.Run("declined leaves state untouched", func(t *testing.T) {
		f := newFixture(t, []domain.Story{published, other}, []domain.Story{published})
		f.confirmer.On("Confirm", mock.Anything, mock.Anything).Return(false).Once()

		assert.ErrorIs(t, f.store.DeleteStory(context.Background(), "s1"), domain.ErrNotConfirmed)
		assert.Len(t, f.store.Stories(), 2)
		assert.Len(t, f.store.Community(), 1)
	})
}

func TestStoryStore_RenameStory(t *testing.T) {
	f := newFixture(t, []domain.Story{storyWithMessages("s1", "m0")}, nil)

	_, err := f.store.RenameStory("s1", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	story, _ := f.store.Story("s1")
	assert.Equal(t, "Título s1", story.Title)

	story, err = f.store.RenameStory("s1", "  A Volta  ")
	require.NoError(t, err)
	assert.Equal(t, "A Volta", story.Title)
	assert.Greater(t, story.UpdatedAt, int64(1))
}

func TestStoryStore_TogglePublishRoundTrip(t *testing.T) {
	original := storyWithMessages("s1", "m0", "m1")
	f := newFixture(t, []domain.Story{original, storyWithMessages("s2")}, nil)

	published, err := f.store.TogglePublish("s1")
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	community := f.store.Community()
	require.Len(t, community, 1)
	assert.Equal(t, "s1", community[0].ID)
	assert.True(t, community[0].IsPublished)

	unpublished, err := f.store.TogglePublish("s1")
	require.NoError(t, err)
	if diff := cmp.Diff(original, unpublished); diff != "" {
		t.Errorf("private story changed after publish round trip (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.store.Community())
}

func TestStoryStore_RepublishReplacesSnapshotNewestFirst(t *testing.T) {
	f := newFixture(t, []domain.Story{storyWithMessages("s1"), storyWithMessages("s2")}, nil)

	_, err := f.store.TogglePublish("s1")
	require.NoError(t, err)
	_, err = f.store.TogglePublish("s2")
	require.NoError(t, err)
	_, err = f.store.RenameStory("s1", "Renomeada")
	require.NoError(t, err)
	_, err = f.store.TogglePublish("s1")
	require.NoError(t, err)
	_, err = f.store.TogglePublish("s1")
	require.NoError(t, err)

	community := f.store.Community()
	require.Len(t, community, 2)
	assert.Equal(t, "s1", community[0].ID)
	assert.Equal(t, "Renomeada", community[0].Title)
	assert.Equal(t, "s2", community[1].ID)

	// Флаг и присутствие в сообществе всегда совпадают.
	for _, st := range f.store.Stories() {
		inCommunity := false
		for _, c := range community {
			inCommunity = inCommunity || c.ID == st.ID
		}
		assert.Equal(t, st.IsPublished, inCommunity, st.ID)
	}
}

func TestStoryStore_ReplyDroppedWhenStoryDeletedDuringGeneration(t *testing.T) {
	f := newFixture(t, []domain.Story{storyWithMessages("s1")}, nil)
	f.confirmer.On("Confirm", mock.Anything, mock.Anything).Return(true).Once()
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		require.NoError(t, f.store.DeleteStory(context.Background(), "s1"))
	}).Return(success("tarde demais")).Once()

	_, err := f.store.SendMessage(context.Background(), "s1", "oi")
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
	assert.Empty(t, f.store.Stories())
	assert.False(t, f.store.IsGenerating())
}

func TestStoryStore_PersistsAndRehydrates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(success("resposta")).Twice()

	first, err := f.store.CreateStory(ctx, "semente")
	require.NoError(t, err)
	_, err = f.store.SendMessage(ctx, "", "outra história")
	require.NoError(t, err)
	_, err = f.store.TogglePublish(first.ID)
	require.NoError(t, err)
	_, err = f.store.EditMessage(first.ID, first.Messages[1].ID, "resposta editada")
	require.NoError(t, err)

	require.NoError(t, f.syncer.Flush(ctx))
	snap := persistence.Load(ctx, f.kv, zap.NewNop())

	if diff := cmp.Diff(f.store.Stories(), snap.Stories); diff != "" {
		t.Errorf("stories mismatch after rehydrate (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(f.store.Community(), snap.Community); diff != "" {
		t.Errorf("community mismatch after rehydrate (-want +got):\n%s", diff)
	}

	restored := service.NewStoryStore(snap.Stories, snap.Community, f.generator, f.syncer, f.confirmer, f.settings, zap.NewNop())
	assert.Equal(t, f.store.Stories(), restored.Stories())
}

func TestStoryStore_SetActive(t *testing.T) {
	f := newFixture(t, []domain.Story{storyWithMessages("s1")}, nil)
	assert.ErrorIs(t, f.store.SetActive("nope"), domain.ErrStoryNotFound)
	require.NoError(t, f.store.SetActive("s1"))
	active, ok := f.store.ActiveStory()
	require.True(t, ok)
	assert.Equal(t, "s1", active.ID)
	require.NoError(t, f.store.SetActive(""))
	_, ok = f.store.ActiveStory()
	assert.False(t, ok)
}

func TestStoryStore_QueriesReturnCopies(t *testing.T) {
	f := newFixture(t, []domain.Story{storyWithMessages("s1", "m0")}, nil)

	story, err := f.store.Story("s1")
	require.NoError(t, err)
	story.Messages[0].Content = "mutated"
	*story.Author = "mutated"

	again, err := f.store.Story("s1")
	require.NoError(t, err)
	assert.Equal(t, "m0", again.Messages[0].Content)
	assert.Equal(t, "Ana", *again.Author)
}
