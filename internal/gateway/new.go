package gateway

import (
	"sync"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/logger"
	"github.com/florianbrandt/protokoll/internal/orchestrator"
)

// frameBuffer is the per-stream frame backlog. At 20ms a frame this is a
// few seconds of audio headroom before frames get dropped.
const frameBuffer = 256

// Client consumes the bridge feed. It also serves as the orchestrator's
// display-name resolver, fed by the bridge's speaker announcements, which
// is why the orchestrator is bound after construction.
type Client struct {
	url    string
	orch   orchestrator.Orchestrator
	logger logger.Logger

	mu      sync.Mutex
	streams map[uint32]chan []byte
	names   map[string]string // "room:speaker" -> display name
}

// New creates a Client for the configured bridge URL.
func New(cfg *config.Config, log logger.Logger) *Client {
	return &Client{
		url:     cfg.Gateway.URL,
		logger:  log,
		streams: make(map[uint32]chan []byte),
		names:   make(map[string]string),
	}
}

// Bind attaches the orchestrator the client dispatches into. Must be
// called before Start.
func (c *Client) Bind(orch orchestrator.Orchestrator) {
	c.orch = orch
}

var _ Gateway = (*Client)(nil)
var _ orchestrator.Names = (*Client)(nil)
