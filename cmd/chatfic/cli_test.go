package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chatfic/internal/domain"
	"chatfic/internal/i18n"
	"chatfic/internal/persistence"
	"chatfic/internal/storage"
)

type cliEnv struct {
	t       *testing.T
	dataDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CHATFIC_STORAGE_DRIVER", storage.DriverSQLite)
	t.Setenv("CHATFIC_STORAGE_PATH", dir)
	t.Setenv("CHATFIC_AI_PROVIDER", "gemini")
	t.Setenv("CHATFIC_AI_API_KEY", "")
	t.Setenv("CHATFIC_LOG_LEVEL", "error")
	t.Setenv("CHATFIC_PUSHGATEWAY_URL", "")
	return &cliEnv{t: t, dataDir: dir}
}

func (e *cliEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &out, &errOut)
	root := c.rootCmd()
	root.SetArgs(append([]string{"--config", filepath.Join(e.dataDir, "absent.yml")}, args...))
	err := root.ExecuteContext(context.Background())
	c.shutdown()
	return out.String(), err
}

// snapshot читает сохраненное состояние напрямую из хранилища.
func (e *cliEnv) snapshot() persistence.Snapshot {
	e.t.Helper()
	ctx := context.Background()
	kv, err := storage.OpenSQLite(ctx, filepath.Join(e.dataDir, "chatfic.db"), zap.NewNop())
	require.NoError(e.t, err)
	defer kv.Close()
	return persistence.Load(ctx, kv, zap.NewNop())
}

func TestCLI_StoryLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	texts := i18n.For(domain.LanguagePtBR)

	out, err := env.run("", "new", "A", "hero", "wakes", "up")
	require.NoError(t, err)
	assert.Contains(t, out, texts.NewStoryTitle)
	assert.Contains(t, out, texts.MissingCredential)

	snap := env.snapshot()
	require.Len(t, snap.Stories, 1)
	story := snap.Stories[0]
	require.Len(t, story.Messages, 2)
	assert.Equal(t, "A hero wakes up", story.Messages[0].Content)
	assert.Equal(t, texts.MissingCredential, story.Messages[1].Content)

	out, err = env.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, texts.NewStoryTitle)

	_, err = env.run("", "rename", story.ID[:8], "O", "Despertar")
	require.NoError(t, err)

	out, err = env.run("", "publish", story.ID)
	require.NoError(t, err)
	assert.Contains(t, out, texts.Published)

	out, err = env.run("", "community")
	require.NoError(t, err)
	assert.Contains(t, out, "O Despertar")

	_, err = env.run("", "edit", story.ID, "2", "Ele", "se", "levanta.")
	require.NoError(t, err)

	out, err = env.run("", "show", "--plain", story.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Ele se levanta.")

	out, err = env.run("", "show", story.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	snap = env.snapshot()
	require.Len(t, snap.Community, 1)
	assert.Equal(t, "O Despertar", snap.Community[0].Title)
	assert.True(t, snap.Stories[0].IsPublished)
}

func TestCLI_DeleteNeedsConfirmation(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("", "new")
	require.NoError(t, err)
	id := env.snapshot().Stories[0].ID

	_, err = env.run("n\n", "rm", id)
	assert.ErrorIs(t, err, domain.ErrNotConfirmed)
	assert.Len(t, env.snapshot().Stories, 1)

	_, err = env.run("", "rm", id)
	assert.ErrorIs(t, err, domain.ErrNotConfirmed, "closed stdin declines")

	_, err = env.run("", "--yes", "rm", id)
	require.NoError(t, err)
	assert.Empty(t, env.snapshot().Stories)
}

func TestCLI_Export(t *testing.T) {
	env := newCLIEnv(t)
	outDir := filepath.Join(t.TempDir(), "exports")

	_, err := env.run("", "new")
	require.NoError(t, err)
	id := env.snapshot().Stories[0].ID

	out, err := env.run("", "export", id, "--out", outDir)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(outDir, "Nova_Fanfic.md"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# Nova Fanfic\n\n**Autor:** Anônimo\n"))

	out, err = env.run("", "export", id, "--format", "pdf", "--out", outDir)
	require.NoError(t, err)
	content, err = os.ReadFile(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))

	_, err = env.run("", "export", id, "--format", "docx", "--out", outDir)
	assert.Error(t, err)
}

func TestCLI_SettingsAndIdeas(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("", "settings", "lang", "en-US")
	require.NoError(t, err)
	_, err = env.run("", "settings", "model", "pro")
	require.NoError(t, err)
	out, err := env.run("", "settings", "size", "100")
	require.NoError(t, err)
	assert.Equal(t, "32", strings.TrimSpace(out))
	out, err = env.run("", "settings", "login", "--name", "Bia")
	require.NoError(t, err)
	assert.Contains(t, out, "Bia <autor@chatfic.ai>")

	_, err = env.run("", "new")
	require.NoError(t, err)

	snap := env.snapshot()
	assert.Equal(t, domain.LanguageEnUS, snap.Language)
	assert.Equal(t, domain.ModelPro, snap.Model)
	assert.Equal(t, domain.MaxFontSize, snap.FontSize)
	require.NotNil(t, snap.User)
	require.Len(t, snap.Stories, 1)
	assert.Equal(t, "New Fanfic", snap.Stories[0].Title)
	assert.Equal(t, "Bia", *snap.Stories[0].Author)
	assert.Equal(t, domain.ModelPro, *snap.Stories[0].PreferredModel)

	_, err = env.run("", "settings", "model", "gpt-9")
	assert.ErrorIs(t, err, domain.ErrUnknownModel)

	out, err = env.run("", "models")
	require.NoError(t, err)
	assert.Contains(t, out, "Flash")
	assert.Contains(t, out, string(domain.ModelPro))

	_, err = env.run("", "ideas", "add", "--title", "Farol", "Um", "farol", "apagado.")
	require.NoError(t, err)
	out, err = env.run("", "ideas")
	require.NoError(t, err)
	assert.Contains(t, out, "Farol")
	assert.Contains(t, out, "Inimigos no Elevador")

	_, err = env.run("", "settings", "logout")
	require.NoError(t, err)
	assert.Nil(t, env.snapshot().User)
}

func TestNeedsApp(t *testing.T) {
	c := newCLI(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	root := c.rootCmd()
	root.InitDefaultHelpCmd()

	list, _, err := root.Find([]string{"list"})
	require.NoError(t, err)
	assert.True(t, needsApp(list))

	help, _, err := root.Find([]string{"help"})
	require.NoError(t, err)
	assert.False(t, needsApp(help))
}

func TestPromptConfirmer(t *testing.T) {
	testCases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Sim\n", true},
		{"yes", true},
		{"\n", false},
		{"n\n", false},
		{"", false},
	}
	for _, tc := range testCases {
		var out bytes.Buffer
		p := newPromptConfirmer(strings.NewReader(tc.input), &out)
		assert.Equal(t, tc.want, p.Confirm(context.Background(), "Apagar?"), "input %q", tc.input)
		assert.Contains(t, out.String(), "Apagar? [y/N]")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newPromptConfirmer(strings.NewReader("y\n"), &bytes.Buffer{})
	assert.False(t, p.Confirm(ctx, "Apagar?"))
}
