package recognizer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"

	"github.com/florianbrandt/protokoll/internal/segmenter"
)

// Transcribe validates the artifact locally, submits it once, and returns
// the recognized text. No language is forced, so multilingual input works.
func (t *implTranscriber) Transcribe(ctx context.Context, artifact *segmenter.Artifact) (string, error) {
	if err := t.guard(artifact); err != nil {
		return "", err
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		return "", &Failure{Kind: KindMalformed, Err: err}
	}
	defer f.Close()

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(t.cfg.Recognition.Model),
	})
	if err != nil {
		return "", classify(err)
	}

	text := strings.TrimSpace(resp.Text)
	t.logger.Debug(ctx, "Recognized %s: %q", artifact.Path, text)
	return text, nil
}

// guard fails fast on artifacts the backend would reject, without spending
// a network call.
func (t *implTranscriber) guard(artifact *segmenter.Artifact) error {
	info, err := os.Stat(artifact.Path)
	if err != nil {
		return &Failure{Kind: KindMalformed, Err: fmt.Errorf("artifact missing: %w", err)}
	}
	if info.Size() == 0 {
		return &Failure{Kind: KindMalformed, Err: fmt.Errorf("artifact %s is empty", artifact.Path)}
	}
	if info.Size() > t.cfg.Recognition.MaxUploadBytes {
		return &Failure{
			Kind: KindMalformed,
			Err:  fmt.Errorf("artifact %s is %d bytes, limit %d", artifact.Path, info.Size(), t.cfg.Recognition.MaxUploadBytes),
		}
	}
	return nil
}
