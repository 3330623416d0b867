package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chatfic/internal/domain"
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences and the local profile",
		Args:  cobra.NoArgs,
		RunE:  c.showSettings,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show current preferences",
		Args:  cobra.NoArgs,
		RunE:  c.showSettings,
	}

	lang := &cobra.Command{
		Use:       "lang <pt-BR|en-US>",
		Short:     "Set the interface and export language",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.LanguagePtBR), string(domain.LanguageEnUS)},
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := domain.ParseLanguage(args[0])
			if err != nil {
				return err
			}
			return c.app.settings.SetLanguage(lang)
		},
	}

	theme := &cobra.Command{
		Use:   "theme [dark|light|toggle]",
		Short: "Set or toggle the dark theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "toggle"
			if len(args) == 1 {
				mode = strings.ToLower(args[0])
			}
			switch mode {
			case "dark":
				c.app.settings.SetDarkMode(true)
			case "light":
				c.app.settings.SetDarkMode(false)
			case "toggle":
				c.app.settings.ToggleDarkMode()
			default:
				return fmt.Errorf("unknown theme %q", mode)
			}
			fmt.Fprintln(cmd.OutOrStdout(), themeName(c.app.settings.DarkMode()))
			return nil
		},
	}

	font := &cobra.Command{
		Use:   "font <sans|serif|mono>",
		Short: "Set the chat font family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := domain.ParseFontFamily(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			return c.app.settings.SetFontFamily(family)
		},
	}

	size := &cobra.Command{
		Use:   "size <points>",
		Short: fmt.Sprintf("Set the chat font size (%d-%d)", domain.MinFontSize, domain.MaxFontSize),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid font size %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.app.settings.SetFontSize(n))
			return nil
		},
	}

	model := &cobra.Command{
		Use:   "model <id|name>",
		Short: "Select the generation model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseAIModel(args[0])
			if err != nil {
				return err
			}
			return c.app.settings.SetModel(m)
		},
	}

	var name, email string
	login := &cobra.Command{
		Use:   "login",
		Short: "Create a local author profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := c.app.settings.SignIn(name, email)
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	login.Flags().StringVar(&name, "name", "", "author name")
	login.Flags().StringVar(&email, "email", "", "author email")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Remove the local author profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.settings.SignOut()
			return nil
		},
	}

	cmd.AddCommand(show, lang, theme, font, size, model, login, logout)
	return cmd
}

func (c *cli) showSettings(cmd *cobra.Command, _ []string) error {
	s := c.app.settings
	w := cmd.OutOrStdout()
	st := c.styles()

	row := func(key string, value any) {
		fmt.Fprintf(w, "%s %v\n", st.Muted.Render(fmt.Sprintf("%-8s", key)), value)
	}
	row("lang", s.Language())
	row("theme", themeName(s.DarkMode()))
	row("font", s.FontFamily())
	row("size", s.FontSize())
	row("model", s.Model())
	if user := s.User(); user != nil {
		row("user", fmt.Sprintf("%s <%s>", user.Name, user.Email))
	} else {
		row("user", "-")
	}
	return nil
}

func (c *cli) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available generation models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printModels(cmd.OutOrStdout(), c.styles(), c.app.settings.Model())
			return nil
		},
	}
}

func printModels(w io.Writer, st styles, selected domain.AIModel) {
	for _, m := range domain.Models() {
		marker := " "
		if m.ID == selected {
			marker = st.Published.Render("*")
		}
		fmt.Fprintf(w, "%s %s %s\n    %s\n", marker, st.Title.Render(m.Name), st.Muted.Render(string(m.ID)), m.Description)
	}
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
