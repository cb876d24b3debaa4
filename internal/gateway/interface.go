package gateway

import "context"

// Gateway consumes the voice-platform bridge feed: session triggers,
// speaker announcements, and per-speaker audio streams.
type Gateway interface {
	// Start connects to the bridge and dispatches events until the
	// context is cancelled, reconnecting on connection loss.
	Start(ctx context.Context) error
}
