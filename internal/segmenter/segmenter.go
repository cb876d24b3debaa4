package segmenter

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// silenceRMS is the mean amplitude below which a frame counts as silence.
// Int16 samples span ±32767; real speech sits well above this.
const silenceRMS = 500.0

// Capture reads frames from the feed until the configured window of
// continuous silence elapses (or the feed closes), then normalizes the
// collected audio to a mono WAV at the recognition sample rate.
func (s *implSegmenter) Capture(ctx context.Context, feed Feed) (*Artifact, error) {
	pcm, voiced, err := s.collect(ctx, feed)
	if err != nil {
		return nil, err
	}

	if voiced < time.Duration(s.cfg.Audio.MinUtteranceMs)*time.Millisecond {
		s.logger.Debug(ctx, "Utterance from %s too short (%s), dropping", feed.Speaker, voiced)
		return nil, nil
	}

	artifact, err := s.normalize(ctx, feed.Speaker, pcm)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, nil
	}

	s.logger.Info(ctx, "Captured utterance: %s (%.1f kB, ~%s)",
		filepath.Base(artifact.Path), float64(artifact.Bytes)/1024, artifact.Duration.Round(100*time.Millisecond))
	return artifact, nil
}

// collect buffers PCM until the silence window elapses. It returns the raw
// bytes and the voiced duration (total capture minus the terminating silence).
func (s *implSegmenter) collect(ctx context.Context, feed Feed) ([]byte, time.Duration, error) {
	var buf bytes.Buffer
	var total, trailingSilence time.Duration

	window := time.Duration(s.cfg.Audio.SilenceWindowMs) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case frame, ok := <-feed.Frames:
			if !ok {
				return buf.Bytes(), total - trailingSilence, nil
			}

			buf.Write(frame)
			d := s.frameDuration(len(frame))
			total += d

			if frameRMS(frame) < silenceRMS {
				trailingSilence += d
				if trailingSilence >= window {
					return buf.Bytes(), total - trailingSilence, nil
				}
			} else {
				trailingSilence = 0
			}
		}
	}
}

// normalize pipes the raw PCM through ffmpeg into a mono WAV at the
// recognition sample rate. Undersized outputs are removed on the spot.
func (s *implSegmenter) normalize(ctx context.Context, speaker string, pcm []byte) (*Artifact, error) {
	if len(pcm) == 0 {
		return nil, nil
	}

	wavPath := filepath.Join(s.cfg.Paths.Audio,
		fmt.Sprintf("%d-%s.wav", time.Now().UnixNano(), speaker))

	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(s.cfg.Audio.InputSampleRate),
		"-ac", strconv.Itoa(s.cfg.Audio.InputChannels),
		"-i", "pipe:0",
		"-ac", "1",
		"-ar", strconv.Itoa(s.cfg.Audio.SampleRate),
		"-f", "wav",
		wavPath,
	}

	if _, err := s.executor.ExecuteWithStdin(ctx, bytes.NewReader(pcm), "ffmpeg", args...); err != nil {
		return nil, fmt.Errorf("ffmpeg transcode: %w", err)
	}

	info, err := os.Stat(wavPath)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	if info.Size() < int64(s.cfg.Audio.MinArtifactBytes) {
		if err := os.Remove(wavPath); err != nil {
			s.logger.Warn(ctx, "Failed to remove undersized artifact %s: %v", wavPath, err)
		}
		return nil, nil
	}

	return &Artifact{
		Path:     wavPath,
		Bytes:    info.Size(),
		Duration: s.wavDuration(info.Size()),
		Speaker:  speaker,
	}, nil
}

// frameDuration converts an input frame's byte length to wall time.
func (s *implSegmenter) frameDuration(n int) time.Duration {
	samples := n / 2 / s.cfg.Audio.InputChannels
	return time.Duration(samples) * time.Second / time.Duration(s.cfg.Audio.InputSampleRate)
}

// wavDuration approximates playback time of the normalized mono output.
func (s *implSegmenter) wavDuration(bytes int64) time.Duration {
	samples := bytes / 2
	return time.Duration(samples) * time.Second / time.Duration(s.cfg.Audio.SampleRate)
}

// frameRMS computes the root-mean-square amplitude of an s16le frame.
func frameRMS(frame []byte) float64 {
	n := len(frame) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(frame); i += 2 {
		v := float64(int16(uint16(frame[i]) | uint16(frame[i+1])<<8))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
