package spool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/florianbrandt/protokoll/internal/ledger"
	"github.com/florianbrandt/protokoll/internal/segmenter"
)

// replayFrameBytes is the frame size used when replaying a spool file
// through the pipeline.
const replayFrameBytes = 64 << 10

// settleDelay gives the producer time to finish writing the file.
const settleDelay = 500 * time.Millisecond

// Start monitors the spool directory until the context is cancelled.
// Files are expected to be raw s16le captures named
// {room}-{channel}-{speaker}-<anything>.pcm
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Spool watcher started, monitoring: %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for spool replays to finish...")
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create || !isCapture(event.Name) {
				continue
			}

			w.logger.Info(ctx, "Spooled capture detected: %s", event.Name)
			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()

				time.Sleep(settleDelay)
				if err := w.replay(ctx, path); err != nil {
					w.logger.Error(ctx, "Failed to replay %s: %v", path, err)
				}
			}(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// replay feeds one spool file through the utterance pipeline as a single
// already-terminated utterance, then removes it.
func (w *implWatcher) replay(ctx context.Context, path string) error {
	key, speaker, err := parseCaptureName(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read capture: %w", err)
	}

	frames := make(chan []byte, len(data)/replayFrameBytes+1)
	for start := 0; start < len(data); start += replayFrameBytes {
		end := start + replayFrameBytes
		if end > len(data) {
			end = len(data)
		}
		frames <- data[start:end]
	}
	close(frames)

	w.orch.HandleSpeech(ctx, key, segmenter.Feed{Speaker: speaker, Frames: frames})

	if err := os.Remove(path); err != nil {
		w.logger.Warn(ctx, "Failed to remove spooled capture %s: %v", path, err)
	}
	return nil
}

func isCapture(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pcm" || ext == ".raw"
}

// parseCaptureName extracts (room, channel, speaker) from a spool file
// named {room}-{channel}-{speaker}-<anything>.pcm
func parseCaptureName(path string) (ledger.Key, string, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.SplitN(base, "-", 4)
	if len(parts) < 3 {
		return ledger.Key{}, "", fmt.Errorf("capture name %q not in room-channel-speaker form", base)
	}
	return ledger.Key{Room: parts[0], Channel: parts[1]}, parts[2], nil
}
