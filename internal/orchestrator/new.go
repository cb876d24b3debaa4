package orchestrator

import (
	"time"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/ledger"
	"github.com/florianbrandt/protokoll/internal/logger"
	"github.com/florianbrandt/protokoll/internal/recognizer"
	"github.com/florianbrandt/protokoll/internal/renderer"
	"github.com/florianbrandt/protokoll/internal/segmenter"
	"github.com/florianbrandt/protokoll/internal/summarizer"
	"github.com/florianbrandt/protokoll/pkg/retry"
)

type implOrchestrator struct {
	cfg         *config.Config
	ledger      ledger.Ledger
	segmenter   segmenter.Segmenter
	transcriber recognizer.Transcriber
	summarizer  summarizer.Summarizer
	renderer    renderer.Renderer
	names       Names
	delivery    Delivery
	logger      logger.Logger
	policy      retry.Policy

	// semaphore bounds how many utterance pipelines run their heavy
	// stages (ffmpeg, transcription) at once.
	semaphore chan struct{}
}

// New wires the pipeline components into an Orchestrator. names and
// delivery may be nil; speaker labels then fall back and results are only
// returned, not delivered.
func New(
	cfg *config.Config,
	led ledger.Ledger,
	seg segmenter.Segmenter,
	tr recognizer.Transcriber,
	sum summarizer.Summarizer,
	rend renderer.Renderer,
	names Names,
	delivery Delivery,
	log logger.Logger,
) Orchestrator {
	maxConcurrent := cfg.Performance.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &implOrchestrator{
		cfg:         cfg,
		ledger:      led,
		segmenter:   seg,
		transcriber: tr,
		summarizer:  sum,
		renderer:    rend,
		names:       names,
		delivery:    delivery,
		logger:      log,
		policy: retry.Policy{
			Retries:   cfg.Recognition.Retries,
			Backoff:   time.Duration(cfg.Recognition.BackoffMs) * time.Millisecond,
			Retryable: recognizer.IsTransient,
		},
		semaphore: make(chan struct{}, maxConcurrent),
	}
}
