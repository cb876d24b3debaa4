package spool

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/logger"
	"github.com/florianbrandt/protokoll/internal/orchestrator"
)

type implWatcher struct {
	dir     string
	orch    orchestrator.Orchestrator
	logger  logger.Logger
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// New creates a Watcher over the configured spool directory. Replayed
// captures run through the same pipeline as live speech, bounded by the
// orchestrator's concurrency cap.
func New(cfg *config.Config, orch orchestrator.Orchestrator, log logger.Logger) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(cfg.Paths.Spool); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &implWatcher{
		dir:     cfg.Paths.Spool,
		orch:    orch,
		logger:  log,
		watcher: watcher,
	}, nil
}
