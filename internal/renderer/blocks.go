package renderer

import (
	"regexp"
	"strings"
)

// BlockKind is the structural role of one summary line.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindBullet
	KindNumbered
	KindQuote
	KindTableRow
)

// Block is one structural element parsed from summary text.
type Block struct {
	Kind  BlockKind
	Level int      // heading level, 1-6
	Text  string   // content without markers
	Cells []string // table row cells
}

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBullet   = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	reQuote    = regexp.MustCompile(`^>\s*(.+)$`)
	reTableSep = regexp.MustCompile(`^[\s:\-|]+$`)
)

// ParseBlocks turns summary text into structural blocks. It is the ad hoc
// markdown sniffing the summarization backends produce: headings, bullets,
// numbered lists, quotes, and pipe-delimited table rows; everything else is
// a paragraph. Blank lines and horizontal rules are dropped.
func ParseBlocks(summary string) []Block {
	var blocks []Block

	for _, line := range strings.Split(summary, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || trimmed == "---" {
			continue
		}

		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, Block{Kind: KindHeading, Level: len(m[1]), Text: m[2]})
			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			if reTableSep.MatchString(trimmed) {
				continue // |---|---| separator row
			}
			blocks = append(blocks, Block{Kind: KindTableRow, Text: trimmed, Cells: splitTableRow(trimmed)})
			continue
		}

		if m := reBullet.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, Block{Kind: KindBullet, Text: m[1]})
			continue
		}

		if m := reNumbered.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, Block{Kind: KindNumbered, Text: trimmed})
			continue
		}

		if m := reQuote.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, Block{Kind: KindQuote, Text: m[1]})
			continue
		}

		blocks = append(blocks, Block{Kind: KindParagraph, Text: trimmed})
	}

	return blocks
}

func splitTableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}
