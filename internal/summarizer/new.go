package summarizer

import (
	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/logger"
)

type implSummarizer struct {
	backend Backend
	budget  int
	logger  logger.Logger
}

// New creates a Summarizer over the given backend with the configured
// cost-unit budget per request.
func New(backend Backend, cfg *config.Config, log logger.Logger) Summarizer {
	return &implSummarizer{
		backend: backend,
		budget:  cfg.Summary.TokenBudget,
		logger:  log,
	}
}
