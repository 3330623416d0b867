package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/persistence"
	"chatfic/internal/service"
	"chatfic/internal/storage"
)

func newSettings(t *testing.T, snap persistence.Snapshot) (*service.Settings, *persistence.Syncer, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	syncer := persistence.NewSyncer(kv, zap.NewNop())
	t.Cleanup(func() { _ = syncer.Close(context.Background()) })
	return service.NewSettings(snap, syncer, zap.NewNop()), syncer, kv
}

func TestSettings_Defaults(t *testing.T) {
	settings, _, _ := newSettings(t, persistence.DefaultSnapshot())

	assert.Equal(t, domain.LanguagePtBR, settings.Language())
	assert.False(t, settings.DarkMode())
	assert.Equal(t, domain.DefaultFontSize, settings.FontSize())
	assert.Equal(t, domain.FontSerif, settings.FontFamily())
	assert.Equal(t, domain.ModelFlash, settings.Model())
	assert.Nil(t, settings.User())
	assert.Equal(t, "Nova Fanfic", settings.Texts().NewStoryTitle)
}

func TestSettings_InvalidSnapshotValuesFallBack(t *testing.T) {
	snap := persistence.DefaultSnapshot()
	snap.Language = "fr-FR"
	snap.FontFamily = "comic"
	snap.Model = "gpt-2"
	snap.FontSize = 99

	settings, _, _ := newSettings(t, snap)
	assert.Equal(t, domain.DefaultLanguage, settings.Language())
	assert.Equal(t, domain.DefaultFontFamily, settings.FontFamily())
	assert.Equal(t, domain.DefaultModel, settings.Model())
	assert.Equal(t, domain.MaxFontSize, settings.FontSize())
}

func TestSettings_ChangesArePersisted(t *testing.T) {
	ctx := context.Background()
	settings, syncer, kv := newSettings(t, persistence.DefaultSnapshot())

	require.NoError(t, settings.SetLanguage(domain.LanguageEnUS))
	assert.True(t, settings.ToggleDarkMode())
	assert.Equal(t, domain.MinFontSize, settings.SetFontSize(3))
	require.NoError(t, settings.SetFontFamily(domain.FontMono))
	require.NoError(t, settings.SetModel(domain.ModelPro))
	user := settings.SignIn("  Bia  ", "")

	require.NoError(t, syncer.Flush(ctx))
	snap := persistence.Load(ctx, kv, zap.NewNop())

	assert.Equal(t, domain.LanguageEnUS, snap.Language)
	assert.True(t, snap.DarkMode)
	assert.Equal(t, domain.MinFontSize, snap.FontSize)
	assert.Equal(t, domain.FontMono, snap.FontFamily)
	assert.Equal(t, domain.ModelPro, snap.Model)
	require.NotNil(t, snap.User)
	assert.Equal(t, user, *snap.User)
	assert.Equal(t, "Bia", snap.User.Name)
	assert.Equal(t, service.DefaultUserEmail, snap.User.Email)
}

func TestSettings_RejectsUnknownValues(t *testing.T) {
	settings, _, _ := newSettings(t, persistence.DefaultSnapshot())

	assert.Error(t, settings.SetLanguage("xx"))
	assert.Error(t, settings.SetFontFamily("comic"))
	assert.ErrorIs(t, settings.SetModel("gpt-2"), domain.ErrUnknownModel)

	assert.Equal(t, domain.LanguagePtBR, settings.Language())
	assert.Equal(t, domain.FontSerif, settings.FontFamily())
	assert.Equal(t, domain.ModelFlash, settings.Model())
}

func TestSettings_SignInAndOut(t *testing.T) {
	ctx := context.Background()
	settings, syncer, kv := newSettings(t, persistence.DefaultSnapshot())

	user := settings.SignIn("", "   ")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, service.DefaultUserName, user.Name)
	assert.Equal(t, service.DefaultUserEmail, user.Email)

	// Профиль возвращается копией.
	got := settings.User()
	require.NotNil(t, got)
	got.Name = "mutated"
	assert.Equal(t, service.DefaultUserName, settings.User().Name)

	settings.SignOut()
	assert.Nil(t, settings.User())

	require.NoError(t, syncer.Flush(ctx))
	_, err := kv.Get(ctx, storage.Key(persistence.KeyUser))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, persistence.Load(ctx, kv, zap.NewNop()).User)
}

func TestSettings_ToggleDarkModeTwice(t *testing.T) {
	settings, _, _ := newSettings(t, persistence.DefaultSnapshot())
	assert.True(t, settings.ToggleDarkMode())
	assert.False(t, settings.ToggleDarkMode())
	settings.SetDarkMode(true)
	assert.True(t, settings.DarkMode())
}
