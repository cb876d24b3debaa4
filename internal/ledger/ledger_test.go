package ledger

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/logger"
)

func testLedger(t *testing.T) Ledger {
	t.Helper()
	cfg := &config.Config{
		Gateway: config.GatewayConfig{URL: "ws://test"},
		Paths: config.PathsConfig{
			Transcripts: t.TempDir(),
			Summaries:   t.TempDir(),
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return New(cfg, logger.New("error"))
}

var key = Key{Room: "room1", Channel: "voice"}

func TestAppendSkipsEmptyText(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	l.Open(ctx, key)

	l.Append(ctx, key, "alice", "")
	l.Append(ctx, key, "alice", "   ")
	l.Append(ctx, key, "alice", "Hallo zusammen")

	entries := l.Transcript(key)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Speaker != "alice" || entries[0].Text != "Hallo zusammen" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestAppendOrderIsCompletionOrder(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	l.Open(ctx, key)

	// Two concurrent speakers resolve in whatever order their recognition
	// calls complete; here B's completes first.
	l.Append(ctx, key, "bob", "Guten Morgen")
	l.Append(ctx, key, "alice", "Hallo zusammen")

	entries := l.Transcript(key)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Speaker != "bob" || entries[1].Speaker != "alice" {
		t.Errorf("order = [%s, %s], want [bob, alice]", entries[0].Speaker, entries[1].Speaker)
	}
}

func TestAppendMirrorsToLogFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &config.Config{
		Gateway: config.GatewayConfig{URL: "ws://test"},
		Paths:   config.PathsConfig{Transcripts: dir, Summaries: t.TempDir()},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	l := New(cfg, logger.New("error"))
	l.Open(ctx, key)

	l.Append(ctx, key, "alice", "Hallo zusammen")

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("log files = %d, want 1", len(files))
	}
	name := files[0].Name()
	if !strings.HasPrefix(name, "room1-voice-") || !strings.HasSuffix(name, ".log") {
		t.Errorf("log file name = %q", name)
	}

	data, err := os.ReadFile(dir + "/" + name)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "alice: Hallo zusammen") {
		t.Errorf("log content = %q", data)
	}
}

func TestAppendSwallowsFileWriteFailure(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Gateway: config.GatewayConfig{URL: "ws://test"},
		Paths:   config.PathsConfig{Transcripts: "/nonexistent/dir", Summaries: t.TempDir()},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	l := New(cfg, logger.New("error"))
	l.Open(ctx, key)

	l.Append(ctx, key, "alice", "Hallo") // must not panic or block

	if len(l.Transcript(key)) != 1 {
		t.Error("in-memory entry lost on file write failure")
	}
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	if !l.Quiescent(key) {
		t.Error("unknown session should be quiescent")
	}

	id1, err := l.BeginTask(ctx, key)
	if err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	id2, err := l.BeginTask(ctx, key)
	if err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	if id1 == id2 {
		t.Error("task IDs must be distinct")
	}
	if l.Quiescent(key) {
		t.Error("session with in-flight tasks is not quiescent")
	}

	l.EndTask(ctx, key, id1)
	if l.Quiescent(key) {
		t.Error("one task still in flight")
	}
	l.EndTask(ctx, key, id2)
	if !l.Quiescent(key) {
		t.Error("session should be quiescent after all tasks end")
	}

	// Ending an unknown task is a no-op.
	l.EndTask(ctx, key, TaskID(999))
}

func TestBeginTaskRejectedWhileDraining(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	l.Open(ctx, key)

	if err := l.BeginDrain(key); err != nil {
		t.Fatalf("BeginDrain() error = %v", err)
	}
	if _, err := l.BeginTask(ctx, key); !errors.Is(err, ErrNotOpen) {
		t.Errorf("BeginTask() error = %v, want ErrNotOpen", err)
	}
}

func TestLifecycleNeverSkipsDraining(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	l.Open(ctx, key)

	if err := l.Close(key); !errors.Is(err, ErrNotDraining) {
		t.Fatalf("Close() on open session error = %v, want ErrNotDraining", err)
	}
	if err := l.BeginDrain(key); err != nil {
		t.Fatalf("BeginDrain() error = %v", err)
	}
	if err := l.Close(key); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := l.BeginDrain(key); !errors.Is(err, ErrNotOpen) {
		t.Errorf("BeginDrain() on closed session error = %v, want ErrNotOpen", err)
	}
}

func TestDrainImmediateWhenQuiescent(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	l.Open(ctx, key)

	start := time.Now()
	if !l.Drain(ctx, key, time.Second, time.Second) {
		t.Error("Drain() = false for quiescent session")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Drain() waited despite quiescence")
	}
}

func TestDrainWaitsForCompletion(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	id, err := l.BeginTask(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	l.Append(ctx, key, "bob", "Guten Morgen")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		l.Append(ctx, key, "alice", "Hallo zusammen")
		l.EndTask(ctx, key, id)
	}()

	if !l.Drain(ctx, key, 2*time.Second, time.Second) {
		t.Error("Drain() = false, want true: task completed within window")
	}
	wg.Wait()

	if got := len(l.Transcript(key)); got != 2 {
		t.Errorf("entries = %d, want 2 (late line must be included)", got)
	}
}

func TestDrainTimesOut(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	id, err := l.BeginTask(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	l.Append(ctx, key, "alice", "Hallo")

	if l.Drain(ctx, key, 30*time.Millisecond, 30*time.Millisecond) {
		t.Error("Drain() = true, want false: task never completes")
	}

	// Nothing lost or duplicated by the timeout.
	if got := len(l.Transcript(key)); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
	l.EndTask(ctx, key, id)
}

func TestDrainGraceWindow(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	id, err := l.BeginTask(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	// Completes after maxWait but inside the grace window.
	go func() {
		time.Sleep(80 * time.Millisecond)
		l.EndTask(ctx, key, id)
	}()

	if !l.Drain(ctx, key, 30*time.Millisecond, time.Second) {
		t.Error("Drain() = false, want true: task completed in grace window")
	}
}

func TestTranscriptText(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	l.Open(ctx, key)

	l.Append(ctx, key, "alice", "Hallo zusammen")
	l.Append(ctx, key, "bob", "Guten Morgen")

	text := l.TranscriptText(key)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "alice: Hallo zusammen") {
		t.Errorf("line[0] = %q", lines[0])
	}
	if !strings.Contains(lines[1], "bob: Guten Morgen") {
		t.Errorf("line[1] = %q", lines[1])
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	l.Open(ctx, key)
	l.Append(ctx, key, "alice", "Hallo")
	l.Remove(key)

	if len(l.Transcript(key)) != 0 {
		t.Error("transcript survived Remove()")
	}
	if _, ok := l.StartedAt(key); ok {
		t.Error("session survived Remove()")
	}
}

func TestAppendAfterRemoveIsDropped(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	// An utterance outlives the drain timeout: the session is closed and
	// removed while its task is still in flight.
	l.Open(ctx, key)
	id, err := l.BeginTask(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.BeginDrain(key); err != nil {
		t.Fatal(err)
	}
	if complete := l.Drain(ctx, key, time.Millisecond, time.Millisecond); complete {
		t.Fatal("drain should have timed out with a task in flight")
	}
	if err := l.Close(key); err != nil {
		t.Fatal(err)
	}
	l.Remove(key)

	// The straggler finishes late. Its line must vanish, not resurrect
	// the session.
	l.Append(ctx, key, "alice", "stale line from the dead session")
	l.EndTask(ctx, key, id)

	if _, ok := l.StartedAt(key); ok {
		t.Fatal("straggler append resurrected a removed session")
	}

	// The next meeting in the same channel starts clean.
	l.Open(ctx, key)
	if entries := l.Transcript(key); len(entries) != 0 {
		t.Errorf("new session inherited %d stale entries: %+v", len(entries), entries)
	}
}
