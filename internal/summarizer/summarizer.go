package summarizer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	singlePassPrompt = `Du bist ein Assistent, der rohe Meeting-Transkripte in ein prägnantes Meeting-Protokoll auf Deutsch verwandelt, mit Zeitstempeln und Stichpunkten. Nutze Markdown (Überschriften, Stichpunkte, Fettdruck).

Bitte fasse dieses Transkript in ein Meeting-Protokoll zusammen:

%s`

	chunkPrompt = `Du bist ein Assistent, der rohe Meeting-Transkripte in ein prägnantes Meeting-Protokoll auf Deutsch verwandelt, mit Zeitstempeln und Stichpunkten.

Hier ist ein Teil des Transkripts. Bitte fasse diesen Abschnitt zusammen:

%s`

	mergePrompt = `Du bist ein Assistent, der Teil-Zusammenfassungen eines Meetings zu einem einzigen prägnanten Meeting-Protokoll auf Deutsch zusammenführt, mit Zeitstempeln und Stichpunkten. Entferne Wiederholungen zwischen den Abschnitten. Nutze Markdown (Überschriften, Stichpunkte, Fettdruck).

Bitte fasse alle diese Teil-Zusammenfassungen nun in ein einzelnes Meeting-Protokoll zusammen:

%s`

	partialDelimiter = "\n\n---\n\n"
)

// Summarize issues one request when the transcript fits the budget,
// otherwise summarizes budget-sized slices and consolidates the partial
// summaries in a final request.
func (s *implSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	units := costUnits(transcript)

	if units <= s.budget {
		s.logger.Info(ctx, "Transcript is ~%d units, summarizing in one pass", units)
		out, err := s.backend.Generate(ctx, fmt.Sprintf(singlePassPrompt, transcript))
		if err != nil {
			return "", fmt.Errorf("summarize: %w", err)
		}
		return strings.TrimSpace(out), nil
	}

	chunks := chunkByBudget(transcript, s.budget*4)
	s.logger.Info(ctx, "Transcript is ~%d units, splitting into %d chunks", units, len(chunks))

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		s.logger.Info(ctx, "Summarizing chunk %d of %d", i+1, len(chunks))
		out, err := s.backend.Generate(ctx, fmt.Sprintf(chunkPrompt, chunk))
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		partials = append(partials, strings.TrimSpace(out))
	}

	s.logger.Info(ctx, "Consolidating %d partial summaries", len(partials))
	out, err := s.backend.Generate(ctx, fmt.Sprintf(mergePrompt, strings.Join(partials, partialDelimiter)))
	if err != nil {
		return "", fmt.Errorf("consolidate summaries: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// costUnits approximates the backend's length accounting: one unit per
// four characters. Exact backend units are not computable locally.
func costUnits(text string) int {
	return (len(text) + 3) / 4
}

// chunkByBudget slices text into contiguous, non-overlapping pieces of at
// most maxChars bytes. A slice may end mid-sentence, but a boundary that
// would land inside a multi-byte rune backs off to the rune's start so a
// German umlaut never straddles two chunks.
func chunkByBudget(text string, maxChars int) []string {
	var chunks []string
	for start := 0; start < len(text); {
		end := start + maxChars
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			end = start + maxChars
		}
		chunks = append(chunks, text[start:end])
		start = end
	}
	return chunks
}
