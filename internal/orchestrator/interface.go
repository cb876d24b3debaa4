package orchestrator

import (
	"context"

	"github.com/florianbrandt/protokoll/internal/ledger"
	"github.com/florianbrandt/protokoll/internal/segmenter"
)

// Result is the outcome of a session close.
type Result struct {
	Summary    string
	DocPath    string
	Incomplete bool // drain timed out; the transcript may be missing lines
	Nothing    bool // nobody spoke, nothing to summarize
}

// Orchestrator drives the per-session pipeline between the two external
// triggers: join (start) and leave (end).
type Orchestrator interface {
	// HandleJoin opens a session.
	HandleJoin(ctx context.Context, key ledger.Key)

	// HandleSpeech starts one asynchronous utterance pipeline
	// (capture, transcribe, append) tracked as an in-flight task.
	// It never blocks on the pipeline itself.
	HandleSpeech(ctx context.Context, key ledger.Key, feed segmenter.Feed)

	// HandleLeave drains the session, summarizes the transcript, renders
	// and delivers the document, and removes the session. It returns an
	// error only when summarization fails; the session is closed and
	// removed regardless.
	HandleLeave(ctx context.Context, key ledger.Key) (*Result, error)
}

// Names resolves a speaker's display name, best effort.
type Names interface {
	DisplayName(ctx context.Context, room, speaker string) (string, error)
}

// Delivery hands a finished session result back to the voice platform.
type Delivery interface {
	Deliver(ctx context.Context, key ledger.Key, result *Result) error
}
