package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/persistence"
	"chatfic/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func strPtr(s string) *string { return &s }

func sampleStories() []domain.Story {
	pro := domain.ModelPro
	return []domain.Story{
		{
			ID:       "s2",
			Title:    "O Portal",
			Universe: "Original",
			Messages: []domain.Message{
				{ID: "m1", Role: domain.RoleUser, Content: "Abra o portal", Timestamp: 100},
				{ID: "m2", Role: domain.RoleAssistant, Content: "O portal brilhou.", Timestamp: 200},
			},
			UpdatedAt:      200,
			Author:         strPtr("Ana"),
			AuthorID:       strPtr("u1"),
			PreferredModel: &pro,
			IsPublished:    true,
		},
		{ID: "s1", Title: "Vazia", Universe: "Original", Messages: []domain.Message{}, UpdatedAt: 50},
	}
}

func TestLoad_EmptyStoreGivesDefaults(t *testing.T) {
	snap := persistence.Load(context.Background(), storage.NewMemoryKV(), zap.NewNop())
	if diff := cmp.Diff(persistence.DefaultSnapshot(), snap); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	syncer := persistence.NewSyncer(kv, zap.NewNop())

	stories := sampleStories()
	user := domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}
	ideas := []domain.IdeaPrompt{{ID: "c1", Title: "Minha", Category: "Geral", Prompt: "..."}}

	syncer.PutJSON(persistence.KeyStories, stories)
	syncer.PutJSON(persistence.KeyCommunity, []domain.Story{stories[0].Clone()})
	syncer.PutJSON(persistence.KeyUser, user)
	syncer.PutJSON(persistence.KeyCustomIdeas, ideas)
	syncer.Put(persistence.KeyLanguage, string(domain.LanguageEnUS))
	syncer.Put(persistence.KeyTheme, "true")
	syncer.Put(persistence.KeyFontSize, "24")
	syncer.Put(persistence.KeyFontFamily, string(domain.FontMono))
	syncer.Put(persistence.KeyModel, string(domain.ModelLite))
	require.NoError(t, syncer.Close(ctx))

	want := persistence.Snapshot{
		Stories:     stories,
		Community:   []domain.Story{stories[0]},
		User:        &user,
		Language:    domain.LanguageEnUS,
		DarkMode:    true,
		FontSize:    24,
		FontFamily:  domain.FontMono,
		Model:       domain.ModelLite,
		CustomIdeas: ideas,
	}
	got := persistence.Load(ctx, kv, zap.NewNop())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CorruptKeysFallBackIndividually(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyStories), "{not json"))
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyCommunity), `"nope"`))
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyLanguage), "fr-FR"))
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyTheme), "dark"))
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyFontSize), "huge"))
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyModel), "gpt-9"))
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyUser), "null"))
	// Целый ключ остается рабочим рядом с испорченными.
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyFontFamily), "sans"))

	snap := persistence.Load(ctx, kv, zap.NewNop())

	def := persistence.DefaultSnapshot()
	assert.Equal(t, def.Stories, snap.Stories)
	assert.Equal(t, def.Community, snap.Community)
	assert.Equal(t, def.Language, snap.Language)
	assert.False(t, snap.DarkMode)
	assert.Equal(t, domain.DefaultFontSize, snap.FontSize)
	assert.Equal(t, domain.DefaultModel, snap.Model)
	assert.Nil(t, snap.User)
	assert.Equal(t, domain.FontSans, snap.FontFamily)
}

func TestLoad_CorruptMessageRoleRejectsCollection(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyStories),
		`[{"id":"s","title":"t","universe":"u","messages":[{"id":"m","role":"robot","content":"x","timestamp":1}],"updatedAt":1,"isPublished":false}]`))

	snap := persistence.Load(ctx, kv, zap.NewNop())
	assert.Empty(t, snap.Stories)
}

func TestLoad_FontSizeIsClamped(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, storage.Key(persistence.KeyFontSize), "99"))

	snap := persistence.Load(ctx, kv, zap.NewNop())
	assert.Equal(t, domain.MaxFontSize, snap.FontSize)
}

func TestSyncer_LastWriteWinsAndRemove(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	syncer := persistence.NewSyncer(kv, zap.NewNop())
	defer syncer.Close(ctx)

	for _, lang := range []string{"pt-BR", "en-US", "pt-BR", "en-US"} {
		syncer.Put(persistence.KeyLanguage, lang)
	}
	syncer.Put(persistence.KeyUser, `{"id":"u"}`)
	syncer.Remove(persistence.KeyUser)
	require.NoError(t, syncer.Flush(ctx))

	value, err := kv.Get(ctx, storage.Key(persistence.KeyLanguage))
	require.NoError(t, err)
	assert.Equal(t, "en-US", value)

	_, err = kv.Get(ctx, storage.Key(persistence.KeyUser))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// failingKV всегда возвращает ошибку записи.
type failingKV struct{ storage.KV }

func (failingKV) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestSyncer_WriteErrorsAreNotFatal(t *testing.T) {
	ctx := context.Background()
	syncer := persistence.NewSyncer(failingKV{storage.NewMemoryKV()}, zap.NewNop())

	syncer.Put(persistence.KeyTheme, "true")
	assert.NoError(t, syncer.Flush(ctx))
	assert.NoError(t, syncer.Close(ctx))
}

func TestSyncer_AfterClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	kv := storage.NewMemoryKV()
	syncer := persistence.NewSyncer(kv, zap.NewNop())
	require.NoError(t, syncer.Close(ctx))
	require.NoError(t, syncer.Close(ctx))

	syncer.Put(persistence.KeyTheme, "true")
	assert.ErrorIs(t, syncer.Flush(ctx), persistence.ErrSyncerClosed)

	_, err := kv.Get(ctx, storage.Key(persistence.KeyTheme))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
