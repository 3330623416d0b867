package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) ideasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "Browse, generate and start story ideas",
		Args:  cobra.NoArgs,
		RunE:  c.listIdeas,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List custom ideas followed by the built-in catalog",
		Args:  cobra.NoArgs,
		RunE:  c.listIdeas,
	}

	gen := &cobra.Command{
		Use:   "gen",
		Short: "Ask the model for a new idea",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idea, err := c.app.ideas.Generate(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), c.app.settings.Texts().IdeaGenerationError)
				return err
			}
			st := c.styles()
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n    %s\n", st.Muted.Render(shortID(idea.ID)), st.Title.Render(idea.Title), st.Muted.Render("["+idea.Category+"]"), idea.Prompt)
			return nil
		},
	}

	var title, category string
	add := &cobra.Command{
		Use:   "add <prompt...>",
		Short: "Save your own idea",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idea, err := c.app.ideas.Add(title, category, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), idea.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&title, "title", "t", "", "idea title")
	add.Flags().StringVar(&category, "category", "", "idea category")

	start := &cobra.Command{
		Use:   "start <idea>",
		Short: "Start a new story seeded with the idea's prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.resolveIdea(args[0])
			if err != nil {
				return err
			}
			story, err := c.app.ideas.StartStory(cmd.Context(), id)
			if err != nil {
				return err
			}
			st := c.styles()
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n\n", st.Muted.Render(story.ID), st.Title.Render(story.Title))
			printLastReply(cmd.OutOrStdout(), st, story, c.app.settings.Texts())
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <idea>",
		Short: "Remove a custom idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.resolveIdea(args[0])
			if err != nil {
				return err
			}
			if err := c.app.ideas.Remove(id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.AddCommand(list, gen, add, start, rm)
	return cmd
}

func (c *cli) listIdeas(cmd *cobra.Command, _ []string) error {
	st := c.styles()
	for _, idea := range c.app.ideas.All() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n    %s\n",
			st.Muted.Render(shortID(idea.ID)),
			st.Title.Render(idea.Title),
			st.Muted.Render("["+idea.Category+"]"),
			idea.Prompt,
		)
	}
	return nil
}

// resolveIdea принимает полный ID идеи или однозначный префикс.
func (c *cli) resolveIdea(ref string) (string, error) {
	if idea, err := c.app.ideas.Find(ref); err == nil {
		return idea.ID, nil
	}
	var found []string
	for _, idea := range c.app.ideas.All() {
		if strings.HasPrefix(idea.ID, ref) {
			found = append(found, idea.ID)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return ref, nil
}
