package gateway

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/florianbrandt/protokoll/internal/ledger"
	"github.com/florianbrandt/protokoll/internal/segmenter"
)

var reconnectDelay = 3 * time.Second

// event is one JSON control frame from the bridge. Binary frames carry a
// 4-byte big-endian stream ID followed by raw s16le PCM.
type event struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Channel string `json:"channel"`
	Speaker string `json:"speaker"`
	Name    string `json:"name"`
	Stream  uint32 `json:"stream"`
}

// Start connects to the bridge and dispatches until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.run(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error(ctx, "Bridge connection lost: %v, reconnecting in %s", err, reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Client) run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial bridge: %w", err)
	}
	defer conn.Close()
	defer c.closeAllStreams()

	c.logger.Info(ctx, "Connected to bridge: %s", c.url)

	// done releases the watcher once this connection is over, so reconnect
	// cycles do not pile up goroutines holding dead connections.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		switch messageType {
		case websocket.TextMessage:
			var ev event
			if err := json.Unmarshal(data, &ev); err != nil {
				c.logger.Warn(ctx, "Malformed bridge event: %v", err)
				continue
			}
			c.handleEvent(ctx, ev)
		case websocket.BinaryMessage:
			c.handleAudio(ctx, data)
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, ev event) {
	key := ledger.Key{Room: ev.Room, Channel: ev.Channel}

	switch ev.Type {
	case "session_start":
		c.orch.HandleJoin(ctx, key)

	case "session_end":
		// HandleLeave blocks on the drain; never stall the read loop.
		go func() {
			result, err := c.orch.HandleLeave(ctx, key)
			if err != nil {
				c.logger.Error(ctx, "Session %s close failed: %v", key, err)
				return
			}
			if result.Nothing {
				c.logger.Info(ctx, "Session %s ended, nothing to summarize", key)
			}
		}()

	case "speaker_name":
		c.mu.Lock()
		c.names[ev.Room+":"+ev.Speaker] = ev.Name
		c.mu.Unlock()

	case "speech_start":
		frames := make(chan []byte, frameBuffer)
		c.mu.Lock()
		if old, ok := c.streams[ev.Stream]; ok {
			// A reused stream ID displaces the previous feed; close it so
			// its capture can finish instead of blocking until drain.
			close(old)
		}
		c.streams[ev.Stream] = frames
		c.mu.Unlock()
		c.orch.HandleSpeech(ctx, key, segmenter.Feed{Speaker: ev.Speaker, Frames: frames})

	case "speech_stop":
		c.closeStream(ev.Stream)

	default:
		c.logger.Debug(ctx, "Ignoring bridge event type %q", ev.Type)
	}
}

func (c *Client) handleAudio(ctx context.Context, data []byte) {
	if len(data) < 4 {
		return
	}
	id := binary.BigEndian.Uint32(data[:4])

	c.mu.Lock()
	frames, ok := c.streams[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	// A full backlog means the pipeline is far behind; dropping the frame
	// beats stalling the socket for every other speaker.
	select {
	case frames <- data[4:]:
	default:
		c.logger.Debug(ctx, "Dropping frame for stream %d, backlog full", id)
	}
}

func (c *Client) closeStream(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if frames, ok := c.streams[id]; ok {
		close(frames)
		delete(c.streams, id)
	}
}

func (c *Client) closeAllStreams() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, frames := range c.streams {
		close(frames)
		delete(c.streams, id)
	}
}

// DisplayName resolves a speaker's display name from the bridge's
// announcements.
func (c *Client) DisplayName(ctx context.Context, room, speaker string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name, ok := c.names[room+":"+speaker]; ok {
		return name, nil
	}
	return "", errors.New("speaker not announced")
}
