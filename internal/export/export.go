// Package export сохраняет историю в markdown и PDF.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"chatfic/internal/domain"
	"chatfic/internal/i18n"
)

// Поддерживаемые форматы.
const (
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName строит имя файла из заголовка: последовательности пробельных символов заменяются на "_".
func FileName(story domain.Story, ext string) string {
	return whitespaceRun.ReplaceAllString(story.Title, "_") + "." + ext
}

// Markdown пишет историю в markdown: заголовок, метаданные, затем реплики по порядку.
func Markdown(w io.Writer, story domain.Story, lang domain.Language) error {
	texts := i18n.For(lang)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", story.Title)
	fmt.Fprintf(&b, "**%s:** %s\n", texts.AuthorLabel, story.AuthorName(texts.Anonymous))
	fmt.Fprintf(&b, "**%s:** %s\n\n---\n\n", texts.UniverseLabel, story.Universe)
	for _, msg := range story.Messages {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", texts.RoleLabel(msg.Role), msg.Content)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

// Write выбирает формат по имени.
func Write(w io.Writer, story domain.Story, lang domain.Language, format string) error {
	switch strings.ToLower(format) {
	case FormatMarkdown, "markdown":
		return Markdown(w, story, lang)
	case FormatPDF:
		return PDF(w, story, lang)
	default:
		return fmt.Errorf("неподдерживаемый формат экспорта: %s", format)
	}
}
