package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/otel"
	"github.com/stacklok/posting-sync/internal/telemetry"
)

// DefaultHeartbeatInterval is the spacing between keep-alive pings
const DefaultHeartbeatInterval = 3 * time.Second

// heartbeatType labels ping failures in metrics
const heartbeatType = "heartbeat"

// ChannelSendFailure reports a channel that could not be written and was pruned
type ChannelSendFailure struct {
	SubscriberID string
	Type         string
	Err          error
}

func (e *ChannelSendFailure) Error() string {
	return fmt.Sprintf("failed to send %s to subscriber %s: %v", e.Type, e.SubscriberID, e.Err)
}

func (e *ChannelSendFailure) Unwrap() error {
	return e.Err
}

// Registry tracks one Channel per subscriber
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel

	heartbeatInterval time.Duration
	metrics           *telemetry.PushMetrics
	tracer            trace.Tracer
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithHeartbeatInterval overrides DefaultHeartbeatInterval
func WithHeartbeatInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.heartbeatInterval = d
		}
	}
}

// WithMetrics records connections and send failures
func WithMetrics(m *telemetry.PushMetrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithTracer wraps publishing in spans
func WithTracer(t trace.Tracer) RegistryOption {
	return func(r *Registry) {
		r.tracer = t
	}
}

// NewRegistry creates an empty Registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		channels:          make(map[string]Channel),
		heartbeatInterval: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HeartbeatInterval returns the configured ping spacing
func (r *Registry) HeartbeatInterval() time.Duration {
	return r.heartbeatInterval
}

// Connect registers ch for subscriberID. A previous channel for the same
// subscriber is removed and closed.
func (r *Registry) Connect(ctx context.Context, subscriberID string, ch Channel) {
	r.mu.Lock()
	prev, replaced := r.channels[subscriberID]
	r.channels[subscriberID] = ch
	r.mu.Unlock()

	if replaced {
		_ = prev.Close()
		slog.Debug("Replaced push channel", "subscriber_id", subscriberID)
		return
	}
	r.metrics.RecordConnected(ctx, 1)
	slog.Debug("Push channel connected", "subscriber_id", subscriberID)
}

// Disconnect removes ch if it is still the subscriber's current channel and
// closes it. It reports whether ch was current.
func (r *Registry) Disconnect(ctx context.Context, subscriberID string, ch Channel) bool {
	removed := r.remove(ctx, subscriberID, ch)
	_ = ch.Close()
	if removed {
		slog.Debug("Push channel disconnected", "subscriber_id", subscriberID)
	}
	return removed
}

// Connected returns the number of connected subscribers
func (r *Registry) Connected() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// IsConnected reports whether subscriberID has an open channel
func (r *Registry) IsConnected(subscriberID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[subscriberID]
	return ok
}

// Send delivers msg to subscriberID. Offline subscribers are skipped silently.
// On a write error the channel is pruned and a *ChannelSendFailure returned.
func (r *Registry) Send(ctx context.Context, subscriberID string, msg Message) error {
	r.mu.RLock()
	ch, ok := r.channels[subscriberID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return r.deliver(ctx, subscriberID, ch, msg.Type, func(ctx context.Context) error {
		return ch.Send(ctx, msg)
	})
}

// Broadcast delivers msg to every connected subscriber concurrently. A failing
// channel is pruned and reported without affecting the others.
func (r *Registry) Broadcast(ctx context.Context, msg Message) error {
	return r.fanOut(ctx, msg.Type, func(ctx context.Context, ch Channel) error {
		return ch.Send(ctx, msg)
	})
}

// Heartbeat pings every channel and prunes those that fail
func (r *Registry) Heartbeat(ctx context.Context) error {
	return r.fanOut(ctx, heartbeatType, func(ctx context.Context, ch Channel) error {
		return ch.Ping(ctx)
	})
}

// Run sends heartbeats every HeartbeatInterval until ctx is done
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	slog.Info("Push heartbeat started", "interval", r.heartbeatInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Push heartbeat stopped")
			return
		case <-ticker.C:
			if err := r.Heartbeat(ctx); err != nil {
				slog.Debug("Pruned dead push channels", "error", err)
			}
		}
	}
}

// PublishEvents sends each event to its recipient. Recipients are written
// concurrently; one recipient's events keep their order.
func (r *Registry) PublishEvents(ctx context.Context, events []notification.Event) error {
	if len(events) == 0 {
		return nil
	}

	ctx, span := otel.StartSpan(ctx, r.tracer, "push.PublishEvents",
		trace.WithAttributes(otel.AttrRecipientCount.Int(len(events))),
	)
	defer span.End()

	var (
		errs        []error
		recipients  []string
		byRecipient = make(map[string][]Message)
	)
	for _, e := range events {
		msg, err := MessageFromEvent(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := byRecipient[e.RecipientID]; !ok {
			recipients = append(recipients, e.RecipientID)
		}
		byRecipient[e.RecipientID] = append(byRecipient[e.RecipientID], msg)
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for _, id := range recipients {
		g.Go(func() error {
			for _, msg := range byRecipient[id] {
				if err := r.Send(ctx, id, msg); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		otel.RecordError(span, err)
		return err
	}
	return nil
}

// snapshot copies the channel map so iteration never holds the lock
func (r *Registry) snapshot() map[string]Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Channel, len(r.channels))
	for id, ch := range r.channels {
		out[id] = ch
	}
	return out
}

func (r *Registry) fanOut(ctx context.Context, typ string, op func(context.Context, Channel) error) error {
	channels := r.snapshot()
	if len(channels) == 0 {
		return nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for id, ch := range channels {
		g.Go(func() error {
			err := r.deliver(ctx, id, ch, typ, func(ctx context.Context) error {
				return op(ctx, ch)
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (r *Registry) deliver(
	ctx context.Context,
	subscriberID string,
	ch Channel,
	typ string,
	write func(context.Context) error,
) error {
	err := write(ctx)
	if err == nil {
		return nil
	}

	r.metrics.RecordSendFailure(ctx, typ)
	if r.remove(ctx, subscriberID, ch) {
		slog.Info("Pruned push channel after failed send",
			"subscriber_id", subscriberID,
			"type", typ,
			"error", err,
		)
	}
	_ = ch.Close()
	return &ChannelSendFailure{SubscriberID: subscriberID, Type: typ, Err: err}
}

// remove deletes ch if it is still current for subscriberID
func (r *Registry) remove(ctx context.Context, subscriberID string, ch Channel) bool {
	r.mu.Lock()
	current, ok := r.channels[subscriberID]
	removed := ok && current == ch
	if removed {
		delete(r.channels, subscriberID)
	}
	r.mu.Unlock()

	if removed {
		r.metrics.RecordConnected(ctx, -1)
	}
	return removed
}

// CloseAll closes and forgets every channel
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[string]Channel)
	r.mu.Unlock()

	for _, ch := range channels {
		_ = ch.Close()
	}
	if n := len(channels); n > 0 {
		r.metrics.RecordConnected(ctx, -int64(n))
	}
}
