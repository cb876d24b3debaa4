package segmenter

import (
	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/logger"
	"github.com/florianbrandt/protokoll/pkg/executor"
)

type implSegmenter struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// New creates a new Segmenter instance
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Segmenter {
	return &implSegmenter{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}
