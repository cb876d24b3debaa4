package summarizer

import "context"

// Summarizer turns a completed session transcript into final summary text,
// chunking the input when it exceeds the backend's budget.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Backend is one text-generation call against the summarization service.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
