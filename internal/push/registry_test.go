package push_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/push"
	"github.com/stacklok/posting-sync/internal/push/mocks"
)

// recordingChannel keeps every message and ping it receives
type recordingChannel struct {
	mu       sync.Mutex
	messages []push.Message
	pings    []time.Time
	failWith error
	block    chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{done: make(chan struct{})}
}

func (c *recordingChannel) Send(_ context.Context, msg push.Message) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *recordingChannel) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.pings = append(c.pings, time.Now())
	return nil
}

func (c *recordingChannel) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *recordingChannel) Done() <-chan struct{} { return c.done }

func (c *recordingChannel) received() []push.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]push.Message(nil), c.messages...)
}

func (c *recordingChannel) pingTimes() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Time(nil), c.pings...)
}

func (c *recordingChannel) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func mustMessage(t *testing.T, typ string, data any) push.Message {
	t.Helper()
	msg, err := push.NewMessage(typ, data, time.Now())
	require.NoError(t, err)
	return msg
}

func TestBroadcast_ConnectDisconnect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()
	a, b := newRecordingChannel(), newRecordingChannel()

	r.Connect(ctx, "A", a)
	r.Connect(ctx, "B", b)

	p1 := mustMessage(t, "DAILY_WINNER", map[string]string{"winner": "m-1"})
	require.NoError(t, r.Broadcast(ctx, p1))
	assert.Equal(t, []push.Message{p1}, a.received())
	assert.Equal(t, []push.Message{p1}, b.received())

	assert.True(t, r.Disconnect(ctx, "A", a))
	assert.True(t, a.closed())

	p2 := mustMessage(t, "DAILY_WINNER", map[string]string{"winner": "m-2"})
	require.NoError(t, r.Broadcast(ctx, p2))
	assert.Equal(t, []push.Message{p1}, a.received())
	assert.Equal(t, []push.Message{p1, p2}, b.received())
	assert.Equal(t, 1, r.Connected())
}

func TestConnect_ReplacesPriorChannel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()
	first, second := newRecordingChannel(), newRecordingChannel()

	r.Connect(ctx, "A", first)
	r.Connect(ctx, "A", second)

	assert.True(t, first.closed())
	assert.False(t, second.closed())
	assert.Equal(t, 1, r.Connected())

	// The stale handler disconnecting must not remove the new channel
	assert.False(t, r.Disconnect(ctx, "A", first))
	assert.True(t, r.IsConnected("A"))

	msg := mustMessage(t, "POINT_AWARDED", nil)
	require.NoError(t, r.Send(ctx, "A", msg))
	assert.Empty(t, first.received())
	assert.Equal(t, []push.Message{msg}, second.received())
}

func TestSend_OfflineIsNoOp(t *testing.T) {
	t.Parallel()

	r := push.NewRegistry()
	assert.NoError(t, r.Send(context.Background(), "nobody", mustMessage(t, "POINT_AWARDED", nil)))
}

func TestSend_FailurePrunesChannel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	broken := errors.New("broken pipe")

	ch.EXPECT().Send(gomock.Any(), gomock.Any()).Return(broken)
	ch.EXPECT().Close().Return(nil)

	ctx := context.Background()
	r := push.NewRegistry()
	r.Connect(ctx, "A", ch)

	err := r.Send(ctx, "A", mustMessage(t, "POINT_AWARDED", nil))

	var failure *push.ChannelSendFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "A", failure.SubscriberID)
	assert.ErrorIs(t, err, broken)
	assert.False(t, r.IsConnected("A"))

	// Later sends are silent no-ops
	assert.NoError(t, r.Send(ctx, "A", mustMessage(t, "POINT_AWARDED", nil)))
}

func TestBroadcast_FailureIsIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()

	bad := newRecordingChannel()
	bad.failWith = errors.New("reset by peer")
	slow := newRecordingChannel()
	slow.block = make(chan struct{})
	good := newRecordingChannel()

	r.Connect(ctx, "bad", bad)
	r.Connect(ctx, "slow", slow)
	r.Connect(ctx, "good", good)

	msg := mustMessage(t, "DAILY_WINNER", nil)
	result := make(chan error, 1)
	go func() { result <- r.Broadcast(ctx, msg) }()

	// The healthy channel is written while the slow one still blocks
	require.Eventually(t, func() bool { return len(good.received()) == 1 }, time.Second, 5*time.Millisecond)
	close(slow.block)

	err := <-result
	var failure *push.ChannelSendFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "bad", failure.SubscriberID)

	assert.Len(t, slow.received(), 1)
	assert.False(t, r.IsConnected("bad"))
	assert.True(t, bad.closed())
	assert.Equal(t, 2, r.Connected())
}

func TestHeartbeat_PrunesDeadChannels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()

	alive, dead := newRecordingChannel(), newRecordingChannel()
	dead.failWith = errors.New("timeout")
	r.Connect(ctx, "alive", alive)
	r.Connect(ctx, "dead", dead)

	err := r.Heartbeat(ctx)
	require.Error(t, err)
	assert.Len(t, alive.pingTimes(), 1)
	assert.False(t, r.IsConnected("dead"))
	assert.True(t, r.IsConnected("alive"))

	assert.NoError(t, r.Heartbeat(ctx))
	assert.Len(t, alive.pingTimes(), 2)
}

func TestRun_SendsPeriodicHeartbeats(t *testing.T) {
	t.Parallel()

	const interval = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	r := push.NewRegistry(push.WithHeartbeatInterval(interval))
	ch := newRecordingChannel()
	r.Connect(ctx, "A", ch)

	stopped := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(stopped)
	}()

	// At least three pings, with slack for slow CI
	require.Eventually(t, func() bool { return len(ch.pingTimes()) >= 3 }, 10*interval, 5*time.Millisecond)
	cancel()
	<-stopped

	pings := ch.pingTimes()
	for i := 1; i < len(pings); i++ {
		assert.GreaterOrEqual(t, pings[i].Sub(pings[i-1]), interval/2)
	}
}

func TestDefaultHeartbeatInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3*time.Second, push.DefaultHeartbeatInterval)
	assert.Equal(t, push.DefaultHeartbeatInterval, push.NewRegistry().HeartbeatInterval())
	assert.Equal(t, time.Second, push.NewRegistry(push.WithHeartbeatInterval(time.Second)).HeartbeatInterval())
	assert.Equal(t, push.DefaultHeartbeatInterval, push.NewRegistry(push.WithHeartbeatInterval(0)).HeartbeatInterval())
}

func TestPublishEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()
	a := newRecordingChannel()
	r.Connect(ctx, "m-1", a)

	at := time.Date(2026, 4, 2, 3, 0, 0, 0, time.UTC)
	events := []notification.Event{
		{RecipientID: "m-1", Type: notification.TypePostingOpened, Content: `{"external_id":"p-1"}`, CreatedAt: at},
		{RecipientID: "m-2", Type: notification.TypePostingOpened, Content: `{"external_id":"p-1"}`, CreatedAt: at},
		{RecipientID: "m-1", Type: notification.TypePointAwarded, Content: `{"points":3}`, CreatedAt: at},
	}

	require.NoError(t, r.PublishEvents(ctx, events))
	got := a.received()
	require.Len(t, got, 2)
	assert.Equal(t, "POSTING_OPENED", got[0].Type)
	assert.JSONEq(t, `{"type":"POSTING_OPENED","v":1,"at":"2026-04-02T03:00:00Z","data":{"external_id":"p-1"}}`, string(got[0].Data))
	assert.Equal(t, "POINT_AWARDED", got[1].Type)

	assert.NoError(t, r.PublishEvents(ctx, nil))
}

func TestPublishEvents_SlowRecipientDoesNotDelayOthers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()

	slow := newRecordingChannel()
	slow.block = make(chan struct{})
	fast := newRecordingChannel()
	bad := newRecordingChannel()
	bad.failWith = errors.New("broken pipe")

	r.Connect(ctx, "m-slow", slow)
	r.Connect(ctx, "m-fast", fast)
	r.Connect(ctx, "m-bad", bad)

	at := time.Date(2026, 4, 2, 3, 0, 0, 0, time.UTC)
	event := func(recipient, id string) notification.Event {
		return notification.Event{
			RecipientID: recipient,
			Type:        notification.TypePostingOpened,
			Content:     `{"external_id":"` + id + `"}`,
			CreatedAt:   at,
		}
	}
	events := []notification.Event{
		event("m-slow", "p-1"),
		event("m-fast", "p-1"),
		event("m-bad", "p-1"),
		event("m-fast", "p-2"),
		event("m-slow", "p-2"),
	}

	result := make(chan error, 1)
	go func() { result <- r.PublishEvents(ctx, events) }()

	require.Eventually(t, func() bool { return len(fast.received()) == 2 }, time.Second, 5*time.Millisecond,
		"recipients after a blocked one must still be written")
	assert.Empty(t, slow.received())
	close(slow.block)

	err := <-result
	var failure *push.ChannelSendFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "m-bad", failure.SubscriberID)

	for name, ch := range map[string]*recordingChannel{"fast": fast, "slow": slow} {
		got := ch.received()
		require.Len(t, got, 2, name)
		assert.Contains(t, string(got[0].Data), `"p-1"`, "%s keeps event order", name)
		assert.Contains(t, string(got[1].Data), `"p-2"`, "%s keeps event order", name)
	}
	assert.False(t, r.IsConnected("m-bad"))
}

func TestCloseAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()
	a, b := newRecordingChannel(), newRecordingChannel()
	r.Connect(ctx, "A", a)
	r.Connect(ctx, "B", b)

	r.CloseAll(ctx)
	assert.Zero(t, r.Connected())
	assert.True(t, a.closed())
	assert.True(t, b.closed())
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := push.NewRegistry()
	msg := mustMessage(t, "DAILY_WINNER", nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(3)
		id := string(rune('a' + i))
		go func() {
			defer wg.Done()
			ch := newRecordingChannel()
			r.Connect(ctx, id, ch)
			r.Disconnect(ctx, id, ch)
		}()
		go func() {
			defer wg.Done()
			_ = r.Broadcast(ctx, msg)
		}()
		go func() {
			defer wg.Done()
			_ = r.Heartbeat(ctx)
		}()
	}
	wg.Wait()
	assert.Zero(t, r.Connected())
}
