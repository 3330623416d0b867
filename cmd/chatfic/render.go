package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"chatfic/internal/domain"
	"chatfic/internal/export"
	"chatfic/internal/i18n"
)

const (
	renderWidth = 80
	shortIDLen  = 8
)

// styles - оформление вывода для светлой и темной темы.
type styles struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Published lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
}

func newStyles(dark bool) styles {
	primary, muted, accent := lipgloss.Color("#5b21b6"), lipgloss.Color("#6b7280"), lipgloss.Color("#047857")
	if dark {
		primary, muted, accent = lipgloss.Color("#c4b5fd"), lipgloss.Color("#9ca3af"), lipgloss.Color("#6ee7b7")
	}
	return styles{
		Title:     lipgloss.NewStyle().Foreground(primary).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Published: lipgloss.NewStyle().Foreground(accent).Bold(true),
		User:      lipgloss.NewStyle().Foreground(primary).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(accent).Bold(true),
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func parsePosition(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// printStoryList печатает по строке на историю.
func printStoryList(w io.Writer, st styles, stories []domain.Story, texts i18n.Texts) {
	if len(stories) == 0 {
		fmt.Fprintln(w, st.Muted.Render("(vazio / empty)"))
		return
	}
	for _, s := range stories {
		line := fmt.Sprintf("%s  %s", st.Muted.Render(shortID(s.ID)), st.Title.Render(s.Title))
		if s.IsPublished {
			line += "  " + st.Published.Render("●")
		}
		meta := fmt.Sprintf("%s · %s · %d msg · %s",
			s.AuthorName(texts.Anonymous),
			s.Universe,
			len(s.Messages),
			time.UnixMilli(s.UpdatedAt).Format("2006-01-02 15:04"),
		)
		fmt.Fprintf(w, "%s\n    %s\n", line, st.Muted.Render(meta))
	}
}

// printMessages печатает реплики с номерами и ID, чтобы на них можно было сослаться в командах.
func printMessages(w io.Writer, st styles, story domain.Story, texts i18n.Texts) {
	for i, m := range story.Messages {
		label := st.User.Render(texts.RoleLabel(m.Role))
		if m.Role == domain.RoleAssistant {
			label = st.Assistant.Render(texts.RoleLabel(m.Role))
		}
		fmt.Fprintf(w, "%d. %s %s\n%s\n\n", i+1, label, st.Muted.Render(shortID(m.ID)), strings.TrimSpace(m.Content))
	}
}

// printLastReply печатает последнюю реплику модели.
func printLastReply(w io.Writer, st styles, story domain.Story, texts i18n.Texts) {
	if n := len(story.Messages); n > 0 && story.Messages[n-1].Role == domain.RoleAssistant {
		last := story.Messages[n-1]
		fmt.Fprintf(w, "%s\n%s\n", st.Assistant.Render(texts.RoleLabel(last.Role)), strings.TrimSpace(last.Content))
	}
}

// renderStory отображает историю в терминале через glamour.
func renderStory(w io.Writer, story domain.Story, lang domain.Language, dark bool) error {
	var md bytes.Buffer
	if err := export.Markdown(&md, story, lang); err != nil {
		return err
	}

	style := "light"
	if dark {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(md.String())
	if err != nil {
		return fmt.Errorf("failed to render story: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
