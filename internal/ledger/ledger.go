package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// logTimeLayout keeps transcript file names filesystem-safe.
const logTimeLayout = "2006-01-02T15-04-05"

func (l *implLedger) Open(ctx context.Context, key Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.getOrCreate(ctx, key)
}

func (l *implLedger) Append(ctx context.Context, key Key, speaker, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	entry := Entry{Timestamp: time.Now(), Speaker: speaker, Text: text}

	l.mu.Lock()
	s, ok := l.sessions[key]
	if !ok {
		// A straggler that outlived a drain timeout. The session was
		// already summarized and removed; resurrecting it here would leak
		// its line into the next meeting in the same channel.
		l.mu.Unlock()
		l.logger.Warn(ctx, "Dropping transcript line from %s for removed session %s", speaker, key)
		return
	}
	s.entries = append(s.entries, entry)
	logPath := s.logPath
	l.mu.Unlock()

	// Losing a line on disk must never affect the in-memory transcript.
	if err := appendLine(logPath, entry.line()); err != nil {
		l.logger.Error(ctx, "Failed to write transcript line for %s: %v", key, err)
	}
}

func (l *implLedger) BeginTask(ctx context.Context, key Key) (TaskID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.getOrCreate(ctx, key)
	if s.state != StateOpen {
		return 0, fmt.Errorf("begin task for %s: %w", key, ErrNotOpen)
	}

	l.nextTask++
	id := l.nextTask
	if len(s.inflight) == 0 {
		s.quiet = make(chan struct{})
	}
	s.inflight[id] = struct{}{}
	return id, nil
}

func (l *implLedger) EndTask(ctx context.Context, key Key, id TaskID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[key]
	if !ok {
		return
	}
	if _, ok := s.inflight[id]; !ok {
		return
	}
	delete(s.inflight, id)
	if len(s.inflight) == 0 && s.quiet != nil {
		close(s.quiet)
		s.quiet = nil
	}
}

func (l *implLedger) Quiescent(key Key) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[key]
	if !ok {
		return true
	}
	return len(s.inflight) == 0
}

func (l *implLedger) BeginDrain(key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[key]
	if !ok {
		return fmt.Errorf("drain %s: %w", key, ErrUnknownSession)
	}
	if s.state != StateOpen {
		return fmt.Errorf("drain %s: %w", key, ErrNotOpen)
	}
	s.state = StateDraining
	return nil
}

// Drain waits for the in-flight set to empty. The wait is a condition wait
// on the session's quiescence channel, not a poll loop.
func (l *implLedger) Drain(ctx context.Context, key Key, maxWait, graceWait time.Duration) bool {
	if l.waitQuiescent(ctx, key, maxWait) {
		return true
	}
	l.logger.Warn(ctx, "Session %s not quiescent after %s, granting %s grace", key, maxWait, graceWait)
	if l.waitQuiescent(ctx, key, graceWait) {
		return true
	}
	l.logger.Warn(ctx, "Session %s still has in-flight work, transcript may be incomplete", key)
	return false
}

func (l *implLedger) waitQuiescent(ctx context.Context, key Key, wait time.Duration) bool {
	l.mu.Lock()
	s, ok := l.sessions[key]
	if !ok || len(s.inflight) == 0 {
		l.mu.Unlock()
		return true
	}
	quiet := s.quiet
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-quiet:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func (l *implLedger) Transcript(key Key) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[key]
	if !ok {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (l *implLedger) TranscriptText(key Key) string {
	var b strings.Builder
	for _, e := range l.Transcript(key) {
		b.WriteString(e.line())
	}
	return b.String()
}

func (l *implLedger) StartedAt(key Key) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[key]
	if !ok {
		return time.Time{}, false
	}
	return s.startedAt, true
}

func (l *implLedger) Close(key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[key]
	if !ok {
		return fmt.Errorf("close %s: %w", key, ErrUnknownSession)
	}
	if s.state != StateDraining {
		return fmt.Errorf("close %s: %w", key, ErrNotDraining)
	}
	s.state = StateClosed
	return nil
}

func (l *implLedger) Remove(key Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, key)
}

// getOrCreate must be called with the mutex held.
func (l *implLedger) getOrCreate(ctx context.Context, key Key) *session {
	if s, ok := l.sessions[key]; ok {
		return s
	}

	now := time.Now()
	s := &session{
		key:       key,
		state:     StateOpen,
		startedAt: now,
		inflight:  make(map[TaskID]struct{}),
		logPath: filepath.Join(l.dir, fmt.Sprintf("%s-%s-%s.log",
			key.Room, key.Channel, now.UTC().Format(logTimeLayout))),
	}
	l.sessions[key] = s
	l.logger.Info(ctx, "Session %s opened, transcript log %s", key, s.logPath)
	return s
}

func (e Entry) line() string {
	return fmt.Sprintf("[%s] %s: %s\n", e.Timestamp.UTC().Format(time.RFC3339), e.Speaker, e.Text)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(line)
	return err
}
