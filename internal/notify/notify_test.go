// AngelaMos | 2026
// notify_test.go

package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/notify"
)

func TestDispatcher_DeliversEveryKind(t *testing.T) {
	var (
		mu    sync.Mutex
		kinds []string
	)
	sender := notify.SenderFunc(func(_ context.Context, kind string, ev notify.OrderEvent) error {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, kind+":"+ev.OrderID)
		return nil
	})

	d := notify.NewDispatcher(sender, nil, time.Second)
	ctx := context.Background()
	ev := notify.OrderEvent{OrderID: "o1", UserID: "u1", PlanType: "kit"}

	d.OrderCreated(ctx, ev)
	d.OrderApproved(ctx, ev)
	d.OrderRejected(ctx, ev)

	require.NoError(t, d.Wait(ctx))
	assert.ElementsMatch(t, []string{
		"order_created:o1",
		"order_approved:o1",
		"order_rejected:o1",
	}, kinds)
}

func TestDispatcher_SendOutlivesRequestContext(t *testing.T) {
	got := make(chan error, 1)
	sender := notify.SenderFunc(func(ctx context.Context, _ string, _ notify.OrderEvent) error {
		got <- ctx.Err()
		return errors.New("smtp unavailable")
	})

	d := notify.NewDispatcher(sender, nil, time.Second)

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	d.OrderApproved(reqCtx, notify.OrderEvent{OrderID: "o1"})

	require.NoError(t, d.Wait(context.Background()))
	assert.NoError(t, <-got)
}

func TestDispatcher_WaitHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	sender := notify.SenderFunc(func(context.Context, string, notify.OrderEvent) error {
		<-release
		return nil
	})

	d := notify.NewDispatcher(sender, nil, time.Minute)
	d.OrderCreated(context.Background(), notify.OrderEvent{OrderID: "o1"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Wait(context.Background()))
}

func TestDispatcher_NilSenderOnlyLogs(t *testing.T) {
	d := notify.NewDispatcher(nil, nil, 0)
	d.OrderCreated(context.Background(), notify.OrderEvent{OrderID: "o1"})
	require.NoError(t, d.Wait(context.Background()))
}

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	if b, ok := message.([]byte); ok {
		p.payloads = append(p.payloads, b)
	}
	return redis.NewIntResult(1, p.err)
}

func TestRedisSender_PublishesThroughDispatcher(t *testing.T) {
	pub := &recordingPublisher{}
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	d := notify.NewDispatcher(notify.SenderFor(pub, "coursehub:notices"), nil, time.Second)
	d.OrderApproved(context.Background(), notify.OrderEvent{
		OrderID:  "o1",
		UserID:   "u1",
		PlanType: "quarterly",
		Status:   "approved",
		EndDate:  &end,
	})
	require.NoError(t, d.Wait(context.Background()))

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, []string{"coursehub:notices"}, pub.channels)

	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "order_approved", got["kind"])
	assert.Equal(t, "o1", got["order_id"])
	assert.Equal(t, "quarterly", got["plan_type"])
	assert.Equal(t, "2026-12-31T00:00:00Z", got["end_date"])
	assert.NotContains(t, got, "note")
}

func TestRedisSender_WrapsPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("connection refused")}

	err := notify.NewRedisSender(pub, "notices").Send(context.Background(), "order_created", notify.OrderEvent{OrderID: "o1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order_created to notices")
}

func TestSenderFor(t *testing.T) {
	assert.Nil(t, notify.SenderFor(&recordingPublisher{}, ""))
	assert.Nil(t, notify.SenderFor(nil, "notices"))
	assert.IsType(t, &notify.RedisSender{}, notify.SenderFor(&recordingPublisher{}, "notices"))
}
