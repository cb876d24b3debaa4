package segmenter

import (
	"context"
	"time"
)

// Feed is a continuous stream of raw PCM frames attributed to one speaker.
// Frames are interleaved s16le samples at the configured input rate and
// channel count. The channel closing means the speaker's stream ended.
type Feed struct {
	Speaker string
	Frames  <-chan []byte
}

// Artifact is one normalized utterance, ready for the recognition backend.
type Artifact struct {
	Path     string
	Bytes    int64
	Duration time.Duration
	Speaker  string
}

// Segmenter turns a per-speaker audio feed into discrete bounded utterances.
// Capture returns (nil, nil) when the utterance is below the minimum
// duration floor; no artifact file remains in that case.
type Segmenter interface {
	Capture(ctx context.Context, feed Feed) (*Artifact, error)
}
