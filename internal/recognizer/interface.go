package recognizer

import (
	"context"

	"github.com/florianbrandt/protokoll/internal/segmenter"
)

// Transcriber submits one normalized utterance to the recognition backend.
// A single call is one attempt; retry policy belongs to the caller.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact *segmenter.Artifact) (string, error)
}
