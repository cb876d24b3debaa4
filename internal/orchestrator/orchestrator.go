package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/florianbrandt/protokoll/internal/ledger"
	"github.com/florianbrandt/protokoll/internal/segmenter"
	"github.com/florianbrandt/protokoll/pkg/retry"
)

// fallbackSpeaker labels an utterance whose display name could not be
// resolved.
const fallbackSpeaker = "Someone"

const docTimeLayout = "2006-01-02T15-04-05"

func (o *implOrchestrator) HandleJoin(ctx context.Context, key ledger.Key) {
	o.ledger.Open(ctx, key)
	o.logger.Info(ctx, "Joined %s, transcribing", key)
}

func (o *implOrchestrator) HandleSpeech(ctx context.Context, key ledger.Key, feed segmenter.Feed) {
	id, err := o.ledger.BeginTask(ctx, key)
	if err != nil {
		o.logger.Warn(ctx, "Dropping utterance from %s in %s: %v", feed.Speaker, key, err)
		go discard(feed)
		return
	}
	go o.runUtterance(ctx, key, id, feed)
}

// runUtterance is one speech-to-transcript pipeline. Failures here are
// isolated: they end this task, never the session. EndTask is deferred
// first so in-flight removal is the very last action after every await.
func (o *implOrchestrator) runUtterance(ctx context.Context, key ledger.Key, id ledger.TaskID, feed segmenter.Feed) {
	defer o.ledger.EndTask(ctx, key, id)

	// The slot is held for the whole pipeline so the configured cap
	// bounds the actual ffmpeg and transcription load. While waiting,
	// the feed producer absorbs backpressure through its frame buffer.
	select {
	case o.semaphore <- struct{}{}:
	case <-ctx.Done():
		discard(feed)
		return
	}
	defer func() { <-o.semaphore }()

	artifact, err := o.segmenter.Capture(ctx, feed)
	if err != nil {
		o.logger.Error(ctx, "Capture failed for %s in %s: %v", feed.Speaker, key, err)
		return
	}
	if artifact == nil {
		return
	}
	defer o.removeArtifact(ctx, artifact.Path)

	var text string
	err = retry.Do(ctx, o.policy, func() error {
		var terr error
		text, terr = o.transcriber.Transcribe(ctx, artifact)
		return terr
	})
	if err != nil {
		o.logger.Error(ctx, "Recognition failed for %s in %s: %v", feed.Speaker, key, err)
		return
	}
	if text == "" {
		return
	}

	o.ledger.Append(ctx, key, o.displayName(ctx, key, feed.Speaker), text)
}

func (o *implOrchestrator) HandleLeave(ctx context.Context, key ledger.Key) (*Result, error) {
	if err := o.ledger.BeginDrain(key); err != nil {
		return nil, err
	}

	// The session is closed and removed whatever happens below, so a
	// failed summarization cannot leak state.
	defer func() {
		if err := o.ledger.Close(key); err != nil {
			o.logger.Warn(ctx, "Close %s: %v", key, err)
		}
		o.ledger.Remove(key)
	}()

	maxWait := time.Duration(o.cfg.Performance.DrainMaxWaitMs) * time.Millisecond
	graceWait := time.Duration(o.cfg.Performance.DrainGraceWaitMs) * time.Millisecond
	complete := o.ledger.Drain(ctx, key, maxWait, graceWait)

	transcript := o.ledger.TranscriptText(key)
	if strings.TrimSpace(transcript) == "" {
		o.logger.Info(ctx, "Session %s ended with an empty transcript", key)
		result := &Result{Nothing: true, Incomplete: !complete}
		o.deliver(ctx, key, result)
		return result, nil
	}

	summary, err := o.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("summarize session %s: %w", key, err)
	}

	result := &Result{Summary: summary, Incomplete: !complete}
	result.DocPath = o.render(ctx, key, summary)
	o.deliver(ctx, key, result)
	return result, nil
}

// render writes the summary document; a rendering failure degrades to a
// text-only result instead of failing the close.
func (o *implOrchestrator) render(ctx context.Context, key ledger.Key, summary string) string {
	docPath := filepath.Join(o.cfg.Paths.Summaries, fmt.Sprintf("%s-%s-%s.docx",
		key.Room, key.Channel, time.Now().UTC().Format(docTimeLayout)))

	title := "Meeting-Protokoll"
	if started, ok := o.ledger.StartedAt(key); ok {
		title = fmt.Sprintf("Meeting-Protokoll %s", started.UTC().Format("2006-01-02 15:04"))
	}

	if err := o.renderer.Render(ctx, title, summary, docPath); err != nil {
		o.logger.Error(ctx, "Failed to render summary for %s: %v", key, err)
		return ""
	}
	return docPath
}

func (o *implOrchestrator) deliver(ctx context.Context, key ledger.Key, result *Result) {
	if o.delivery == nil {
		return
	}
	if err := o.delivery.Deliver(ctx, key, result); err != nil {
		o.logger.Error(ctx, "Failed to deliver result for %s: %v", key, err)
	}
}

func (o *implOrchestrator) displayName(ctx context.Context, key ledger.Key, speaker string) string {
	if o.names == nil {
		return fallbackSpeaker
	}
	name, err := o.names.DisplayName(ctx, key.Room, speaker)
	if err != nil || name == "" {
		return fallbackSpeaker
	}
	return name
}

func (o *implOrchestrator) removeArtifact(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil {
		o.logger.Warn(ctx, "Failed to remove artifact %s: %v", path, err)
	}
}

// discard drains a feed whose utterance was rejected, so the producer
// never blocks on an unread channel.
func discard(feed segmenter.Feed) {
	for range feed.Frames {
	}
}
