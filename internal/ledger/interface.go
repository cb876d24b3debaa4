package ledger

import (
	"context"
	"errors"
	"time"
)

// Key identifies one voice session: the pair of room and channel the bot
// is joined to.
type Key struct {
	Room    string
	Channel string
}

func (k Key) String() string { return k.Room + ":" + k.Channel }

// State is the session lifecycle. A session never goes from Open straight
// to Closed; Draining always sits in between.
type State int

const (
	StateOpen State = iota
	StateDraining
	StateClosed
)

// TaskID is a handle for one in-flight utterance transcription.
type TaskID int64

// Entry is one attributed transcript line. Immutable once appended; entry
// order is append order, which follows transcription completion order.
type Entry struct {
	Timestamp time.Time
	Speaker   string
	Text      string
}

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrNotOpen        = errors.New("session is not open")
	ErrNotDraining    = errors.New("session is not draining")
)

// Ledger owns all per-session state: the ordered transcript, the in-flight
// task set, and the lifecycle. All methods are safe for concurrent use.
type Ledger interface {
	// Open creates the session if it does not exist yet.
	Open(ctx context.Context, key Key)

	// Append records one transcript line, mirroring it to the session's log
	// file. Empty text is dropped, as are lines for sessions that no longer
	// exist. File write failures are logged and swallowed; Append never
	// blocks on them.
	Append(ctx context.Context, key Key, speaker, text string)

	// BeginTask registers an in-flight utterance. Fails once the session is
	// draining or closed.
	BeginTask(ctx context.Context, key Key) (TaskID, error)

	// EndTask removes the task from the in-flight set. Must be the last
	// action of an utterance pipeline, after every await.
	EndTask(ctx context.Context, key Key, id TaskID)

	// Quiescent reports whether the in-flight set is empty.
	Quiescent(key Key) bool

	// BeginDrain moves an open session to Draining.
	BeginDrain(key Key) error

	// Drain waits for quiescence up to maxWait, then grants one graceWait
	// extension. Returns whether the session went quiescent in time.
	Drain(ctx context.Context, key Key, maxWait, graceWait time.Duration) bool

	// Transcript returns a copy of the session's entries in append order.
	Transcript(key Key) []Entry

	// TranscriptText renders the transcript the way it is logged to disk.
	TranscriptText(key Key) string

	// StartedAt returns the session's creation time.
	StartedAt(key Key) (time.Time, bool)

	// Close moves a draining session to Closed.
	Close(key Key) error

	// Remove drops the session from the ledger entirely.
	Remove(key Key)
}
