// AngelaMos | 2026
// redis.go

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher is the slice of *redis.Client the sender needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type message struct {
	Kind     string     `json:"kind"`
	OrderID  string     `json:"order_id"`
	UserID   string     `json:"user_id"`
	PlanType string     `json:"plan_type"`
	Status   string     `json:"status"`
	Note     string     `json:"note,omitempty"`
	EndDate  *time.Time `json:"end_date,omitempty"`
	SentAt   time.Time  `json:"sent_at"`
}

// RedisSender publishes each event as JSON on one pub/sub channel. Mail
// and push workers subscribe there; a notice with no subscriber is lost.
type RedisSender struct {
	pub     Publisher
	channel string
	now     func() time.Time
}

func NewRedisSender(pub Publisher, channel string) *RedisSender {
	return &RedisSender{pub: pub, channel: channel, now: time.Now}
}

func (s *RedisSender) Send(ctx context.Context, kind string, ev OrderEvent) error {
	payload, err := json.Marshal(message{
		Kind:     kind,
		OrderID:  ev.OrderID,
		UserID:   ev.UserID,
		PlanType: ev.PlanType,
		Status:   ev.Status,
		Note:     ev.Note,
		EndDate:  ev.EndDate,
		SentAt:   s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	if err := s.pub.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", kind, s.channel, err)
	}
	return nil
}

// SenderFor picks the delivery target for the configured channel. An
// empty channel yields nil, which leaves the dispatcher logging only.
func SenderFor(pub Publisher, channel string) Sender {
	if channel == "" || pub == nil {
		return nil
	}
	return NewRedisSender(pub, channel)
}
