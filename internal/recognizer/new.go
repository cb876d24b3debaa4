package recognizer

import (
	"github.com/openai/openai-go"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/logger"
)

type implTranscriber struct {
	client *openai.Client
	cfg    *config.Config
	logger logger.Logger
}

// New creates a Transcriber backed by the OpenAI transcription API.
func New(client *openai.Client, cfg *config.Config, log logger.Logger) Transcriber {
	return &implTranscriber{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}
