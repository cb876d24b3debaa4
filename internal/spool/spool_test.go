package spool

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/ledger"
	"github.com/florianbrandt/protokoll/internal/logger"
	"github.com/florianbrandt/protokoll/internal/orchestrator"
	"github.com/florianbrandt/protokoll/internal/segmenter"
)

type recordedSpeech struct {
	key  ledger.Key
	feed segmenter.Feed
	data []byte
}

type fakeOrchestrator struct {
	mu     sync.Mutex
	speech []*recordedSpeech
}

func (f *fakeOrchestrator) HandleJoin(ctx context.Context, key ledger.Key) {}

func (f *fakeOrchestrator) HandleSpeech(ctx context.Context, key ledger.Key, feed segmenter.Feed) {
	var buf bytes.Buffer
	for frame := range feed.Frames {
		buf.Write(frame)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speech = append(f.speech, &recordedSpeech{key: key, feed: feed, data: buf.Bytes()})
}

func (f *fakeOrchestrator) HandleLeave(ctx context.Context, key ledger.Key) (*orchestrator.Result, error) {
	return &orchestrator.Result{}, nil
}

func TestParseCaptureName(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		room    string
		channel string
		speaker string
		wantErr bool
	}{
		{"full name", "/spool/r1-voice-alice-20250427.pcm", "r1", "voice", "alice", false},
		{"minimal", "r1-voice-alice.raw", "r1", "voice", "alice", false},
		{"too few parts", "capture.pcm", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, speaker, err := parseCaptureName(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if key.Room != tt.room || key.Channel != tt.channel || speaker != tt.speaker {
				t.Errorf("parsed = %v/%s", key, speaker)
			}
		})
	}
}

func TestIsCapture(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a-b-c.pcm", true},
		{"a-b-c.PCM", true},
		{"a-b-c.raw", true},
		{"a-b-c.wav", false},
		{"a-b-c.txt", false},
	}
	for _, tt := range tests {
		if got := isCapture(tt.path); got != tt.want {
			t.Errorf("isCapture(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReplayFeedsPipelineAndRemovesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Gateway: config.GatewayConfig{URL: "ws://test"},
		Paths: config.PathsConfig{
			Spool:       dir,
			Transcripts: t.TempDir(),
			Summaries:   t.TempDir(),
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	orch := &fakeOrchestrator{}
	w, err := New(cfg, orch, logger.New("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 40000) // spans multiple frames
	path := filepath.Join(dir, "r1-voice-alice-001.pcm")
	if err := os.WriteFile(path, payload, 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		orch.mu.Lock()
		n := len(orch.speech)
		orch.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	orch.mu.Lock()
	defer orch.mu.Unlock()
	if len(orch.speech) != 1 {
		t.Fatalf("speech events = %d, want 1", len(orch.speech))
	}
	rec := orch.speech[0]
	if rec.key != (ledger.Key{Room: "r1", Channel: "voice"}) || rec.feed.Speaker != "alice" {
		t.Errorf("attribution = %v/%s", rec.key, rec.feed.Speaker)
	}
	if !bytes.Equal(rec.data, payload) {
		t.Errorf("replayed bytes = %d, want %d", len(rec.data), len(payload))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("spool file not removed after replay")
	}
}
