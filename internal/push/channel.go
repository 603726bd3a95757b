package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultWriteTimeout bounds a single write to a channel
const DefaultWriteTimeout = 5 * time.Second

// ErrChannelClosed is returned when writing to a closed channel
var ErrChannelClosed = errors.New("push channel closed")

//go:generate mockgen -destination=mocks/mock_channel.go -package=mocks -source=channel.go Channel

// Channel is one open connection to a subscriber
type Channel interface {
	// Send writes a message
	Send(ctx context.Context, msg Message) error
	// Ping writes a keep-alive marker
	Ping(ctx context.Context) error
	// Close ends the connection. It is safe to call more than once.
	Close() error
	// Done is closed once the channel is closed
	Done() <-chan struct{}
}

// SSEChannel is a Channel on a streaming HTTP response
type SSEChannel struct {
	mu           sync.Mutex
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
	done         chan struct{}
	closeOnce    sync.Once
}

// NewSSEChannel writes the event-stream headers and returns a channel on w
func NewSSEChannel(w http.ResponseWriter, writeTimeout time.Duration) (*SSEChannel, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, fmt.Errorf("streaming unsupported by response writer")
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	c := &SSEChannel{
		w:            w,
		rc:           http.NewResponseController(w),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	if err := c.rc.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush headers: %w", err)
	}
	return c, nil
}

// Send implements Channel
func (c *SSEChannel) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	if msg.Type != "" {
		b.WriteString("event: ")
		b.WriteString(msg.Type)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(string(msg.Data), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return c.write(b.String())
}

// Ping implements Channel with an SSE comment line
func (c *SSEChannel) Ping(_ context.Context) error {
	return c.write(": ping\n\n")
}

func (c *SSEChannel) write(frame string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	if err := c.rc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if _, err := c.w.Write([]byte(frame)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := c.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	return nil
}

// Close implements Channel. It waits for an in-flight write so the
// response writer is not used after the handler returns.
func (c *SSEChannel) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		close(c.done)
	})
	return nil
}

// Done implements Channel
func (c *SSEChannel) Done() <-chan struct{} {
	return c.done
}
