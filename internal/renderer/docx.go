package renderer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/florianbrandt/protokoll/internal/logger"
)

const (
	fontName = "Times New Roman"
	fontSize = 12
)

var reBold = regexp.MustCompile(`\*\*(.+?)\*\*`)

type implRenderer struct {
	logger logger.Logger
}

// New creates a Renderer that writes styled docx documents.
func New(log logger.Logger) Renderer {
	return &implRenderer{logger: log}
}

// Render writes the summary as a docx file, one paragraph per block.
func (r *implRenderer) Render(ctx context.Context, title, summary, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)

	for _, block := range ParseBlocks(summary) {
		p := doc.AddParagraph("")
		switch block.Kind {
		case KindHeading:
			addStyledRun(p, block.Text, true, headingSize(block.Level))
		case KindBullet:
			addRichText(p, "• "+block.Text)
		case KindNumbered:
			addRichText(p, block.Text)
		case KindQuote:
			addRichText(p, "„"+block.Text+"“")
		case KindTableRow:
			addRichText(p, strings.Join(block.Cells, "  |  "))
		default:
			addRichText(p, block.Text)
		}
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	r.logger.Info(ctx, "Rendered summary document: %s", outputPath)
	return nil
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 15
	case 3:
		return 14
	default:
		return fontSize
	}
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(stripInlineMarkers(text)).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

// addRichText renders **bold** spans as bold runs and everything else plain.
func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(stripInlineMarkers(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(stripInlineMarkers(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func stripInlineMarkers(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
