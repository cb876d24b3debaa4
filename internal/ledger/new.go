package ledger

import (
	"sync"
	"time"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/logger"
)

type session struct {
	key       Key
	state     State
	startedAt time.Time
	entries   []Entry
	inflight  map[TaskID]struct{}
	quiet     chan struct{} // closed when the in-flight set reaches zero
	logPath   string
}

type implLedger struct {
	mu       sync.Mutex
	sessions map[Key]*session
	nextTask TaskID
	dir      string
	logger   logger.Logger
}

// New creates an empty Ledger writing transcript logs under the configured
// transcripts directory.
func New(cfg *config.Config, log logger.Logger) Ledger {
	return &implLedger{
		sessions: make(map[Key]*session),
		dir:      cfg.Paths.Transcripts,
		logger:   log,
	}
}
