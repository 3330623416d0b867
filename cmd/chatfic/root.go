package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chatfic/internal/domain"
	"chatfic/internal/service"
)

// noAppAnnotation помечает команды, которым не нужно хранилище и клиент генерации.
const noAppAnnotation = "chatfic/no-app"

// cli держит глобальные флаги и собранное приложение между PreRun и выходом.
type cli struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	configPath string
	assumeYes  bool

	app *app
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{in: in, out: out, err: errOut}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chatfic",
		Short: "Co-write fanfiction with a generative model",
		Long: `chatfic keeps a local library of chat-style stories written together with a
generative text model. Stories can be published to the local community feed
and exported as Markdown or PDF.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsApp(cmd) || c.app != nil {
				return nil
			}
			var confirmer service.Confirmer = newPromptConfirmer(c.in, c.err)
			if c.assumeYes {
				confirmer = service.AlwaysConfirm
			}
			a, err := newApp(cmd.Context(), c.configPath, confirmer)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.err)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to the yaml config (default chatfic.yml)")
	root.PersistentFlags().BoolVarP(&c.assumeYes, "yes", "y", false, "confirm destructive operations without asking")

	root.AddCommand(
		c.newCmd(),
		c.sendCmd(),
		c.regenCmd(),
		c.editCmd(),
		c.rmMsgCmd(),
		c.rmCmd(),
		c.renameCmd(),
		c.publishCmd(),
		c.listCmd(),
		c.communityCmd(),
		c.showCmd(),
		c.exportCmd(),
		c.ideasCmd(),
		c.settingsCmd(),
		c.modelsCmd(),
	)
	return root
}

// shutdown закрывает приложение, если оно было собрано.
func (c *cli) shutdown() {
	if c.app != nil {
		c.app.close()
		c.app = nil
	}
}

func needsApp(cmd *cobra.Command) bool {
	for p := cmd; p != nil; p = p.Parent() {
		if _, ok := p.Annotations[noAppAnnotation]; ok {
			return false
		}
		switch p.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

// resolveStory находит историю по полному ID или однозначному префиксу.
func (c *cli) resolveStory(ref string) (domain.Story, error) {
	if story, err := c.app.stories.Story(ref); err == nil {
		return story, nil
	}
	var found []domain.Story
	for _, st := range c.app.stories.Stories() {
		if strings.HasPrefix(st.ID, ref) {
			found = append(found, st)
		}
	}
	switch len(found) {
	case 0:
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return domain.Story{}, fmt.Errorf("story reference %q is ambiguous (%d matches)", ref, len(found))
	}
}

// resolveMessage находит сообщение по ID, однозначному префиксу или номеру (с 1).
func resolveMessage(story domain.Story, ref string) (domain.Message, error) {
	if idx := story.MessageIndex(ref); idx >= 0 {
		return story.Messages[idx], nil
	}
	if n, ok := parsePosition(ref); ok && n <= len(story.Messages) {
		return story.Messages[n-1], nil
	}
	var found []domain.Message
	for _, m := range story.Messages {
		if strings.HasPrefix(m.ID, ref) {
			found = append(found, m)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return domain.Message{}, fmt.Errorf("%w: %s", domain.ErrMessageNotFound, ref)
}
