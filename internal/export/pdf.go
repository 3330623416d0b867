package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"chatfic/internal/domain"
	"chatfic/internal/i18n"
)

// Разметка страницы в миллиметрах.
const (
	pageMargin    = 20.0
	titleY        = 30.0
	authorY       = 40.0
	universeY     = 45.0
	bodyStartY    = 60.0
	lineHeight    = 7.0
	messageGap    = 10.0
	pageBreakY    = 280.0
	titleFontSize = 22.0
	bodyFontSize  = 12.0
	fontFamily    = "Helvetica"
)

// PDF пишет историю постраничным A4 документом.
func PDF(w io.Writer, story domain.Story, lang domain.Language) error {
	doc := buildPDF(story, lang)
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func buildPDF(story domain.Story, lang domain.Language) *fpdf.Fpdf {
	texts := i18n.For(lang)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(false, pageMargin)
	doc.SetTitle(story.Title, true)
	doc.SetAuthor(story.AuthorName(texts.Anonymous), true)
	doc.SetCreationDate(time.UnixMilli(story.UpdatedAt).UTC())
	tr := doc.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := doc.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	doc.AddPage()
	doc.SetFont(fontFamily, "", titleFontSize)
	doc.Text(pageMargin, titleY, tr(story.Title))
	doc.SetFont(fontFamily, "", bodyFontSize)
	doc.Text(pageMargin, authorY, tr(texts.By+" "+story.AuthorName(texts.Anonymous)))
	doc.Text(pageMargin, universeY, tr(story.Universe))

	y := bodyStartY
	nextLine := func() {
		if y > pageBreakY {
			doc.AddPage()
			y = pageMargin
		}
	}

	for _, msg := range story.Messages {
		nextLine()
		doc.SetFont(fontFamily, "B", bodyFontSize)
		doc.Text(pageMargin, y, tr(texts.DocumentRoleLabel(msg.Role)))
		y += lineHeight

		doc.SetFont(fontFamily, "", bodyFontSize)
		for _, line := range doc.SplitLines([]byte(tr(msg.Content)), contentWidth) {
			nextLine()
			doc.Text(pageMargin, y, string(line))
			y += lineHeight
		}
		y += messageGap
	}
	return doc
}
