package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chatfic/internal/export"
)

func (c *cli) styles() styles {
	return newStyles(c.app.settings.DarkMode())
}

func (c *cli) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [seed prompt...]",
		Short: "Create a story, optionally seeded with a first message",
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.app.stories.CreateStory(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			st := c.styles()
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n\n", st.Muted.Render(story.ID), st.Title.Render(story.Title))
			printLastReply(cmd.OutOrStdout(), st, story, c.app.settings.Texts())
			return nil
		},
	}
}

func (c *cli) sendCmd() *cobra.Command {
	var storyRef string
	cmd := &cobra.Command{
		Use:   "send <text...>",
		Short: "Send a message and append the model's reply",
		Long:  "Without --story a new story is created and titled after the beginning of the message.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyID := ""
			if storyRef != "" {
				story, err := c.resolveStory(storyRef)
				if err != nil {
					return err
				}
				storyID = story.ID
			}
			story, err := c.app.stories.SendMessage(cmd.Context(), storyID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if storyID == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n\n", c.styles().Muted.Render(story.ID), c.styles().Title.Render(story.Title))
			}
			printLastReply(cmd.OutOrStdout(), c.styles(), story, c.app.settings.Texts())
			return nil
		},
	}
	cmd.Flags().StringVarP(&storyRef, "story", "s", "", "story ID or unique prefix")
	return cmd
}

func (c *cli) regenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regen <story> <index>",
		Short: "Drop messages from index (0-based) on and generate a new reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			story, err = c.app.stories.RegenerateMessage(cmd.Context(), story.ID, index)
			if err != nil {
				return err
			}
			printLastReply(cmd.OutOrStdout(), c.styles(), story, c.app.settings.Texts())
			return nil
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <story> <message> <text...>",
		Short: "Replace the text of a message",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			msg, err := resolveMessage(story, args[1])
			if err != nil {
				return err
			}
			if _, err := c.app.stories.EditMessage(story.ID, msg.ID, strings.Join(args[2:], " ")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func (c *cli) rmMsgCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-msg <story> <message>",
		Short: "Delete a single message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			msg, err := resolveMessage(story, args[1])
			if err != nil {
				return err
			}
			if _, err := c.app.stories.DeleteMessage(cmd.Context(), story.ID, msg.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <story>",
		Short: "Delete a story and its community copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			if err := c.app.stories.DeleteStory(cmd.Context(), story.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func (c *cli) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <story> <title...>",
		Short: "Rename a story",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			story, err = c.app.stories.RenameStory(story.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.styles().Title.Render(story.Title))
			return nil
		},
	}
}

func (c *cli) publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <story>",
		Short: "Toggle publication to the community feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			story, err = c.app.stories.TogglePublish(story.ID)
			if err != nil {
				return err
			}
			texts := c.app.settings.Texts()
			if story.IsPublished {
				fmt.Fprintln(cmd.OutOrStdout(), c.styles().Published.Render(texts.Published))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), texts.Unpublished)
			}
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your stories, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printStoryList(cmd.OutOrStdout(), c.styles(), c.app.stories.Stories(), c.app.settings.Texts())
			return nil
		},
	}
}

func (c *cli) communityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "community",
		Short: "List published stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printStoryList(cmd.OutOrStdout(), c.styles(), c.app.stories.Community(), c.app.settings.Texts())
			return nil
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "show <story>",
		Short: "Render a story in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			if plain {
				st := c.styles()
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n\n", st.Muted.Render(story.ID), st.Title.Render(story.Title))
				printMessages(cmd.OutOrStdout(), st, story, c.app.settings.Texts())
				return nil
			}
			return renderStory(cmd.OutOrStdout(), story, c.app.settings.Language(), c.app.settings.DarkMode())
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print numbered messages with their IDs instead of rendered markdown")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var format, outDir string
	cmd := &cobra.Command{
		Use:   "export <story>",
		Short: "Export a story as Markdown or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := c.resolveStory(args[0])
			if err != nil {
				return err
			}
			format = strings.ToLower(format)
			if format != export.FormatMarkdown && format != export.FormatPDF {
				return fmt.Errorf("unsupported format %q (md or pdf)", format)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path := filepath.Join(outDir, export.FileName(story, format))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := export.Write(f, story, c.app.settings.Language(), format); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", path, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatMarkdown, "md or pdf")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}
