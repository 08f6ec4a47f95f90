// AngelaMos | 2026
// notify.go

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type OrderEvent struct {
	OrderID  string
	UserID   string
	PlanType string
	Status   string
	Note     string
	EndDate  *time.Time
}

// Notifier receives order lifecycle events. Implementations must not block
// the caller and must swallow their own failures.
type Notifier interface {
	OrderCreated(ctx context.Context, ev OrderEvent)
	OrderApproved(ctx context.Context, ev OrderEvent)
	OrderRejected(ctx context.Context, ev OrderEvent)
}

// Sender delivers one message. A mail or webhook client plugs in here.
type Sender interface {
	Send(ctx context.Context, kind string, ev OrderEvent) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, kind string, ev OrderEvent) error

func (f SenderFunc) Send(ctx context.Context, kind string, ev OrderEvent) error {
	return f(ctx, kind, ev)
}

type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher returns a Notifier that hands each event to sender on its
// own goroutine. A nil sender only logs.
func NewDispatcher(sender Sender, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		timeout: timeout,
	}
}

func (d *Dispatcher) OrderCreated(ctx context.Context, ev OrderEvent) {
	d.dispatch(ctx, "order_created", ev)
}

func (d *Dispatcher) OrderApproved(ctx context.Context, ev OrderEvent) {
	d.dispatch(ctx, "order_approved", ev)
}

func (d *Dispatcher) OrderRejected(ctx context.Context, ev OrderEvent) {
	d.dispatch(ctx, "order_rejected", ev)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, ev OrderEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		d.logger.Info("notification",
			"kind", kind,
			"order_id", ev.OrderID,
			"user_id", ev.UserID,
			"plan_type", ev.PlanType,
		)

		if d.sender == nil {
			return
		}

		if err := d.sender.Send(sendCtx, kind, ev); err != nil {
			d.logger.Warn("notification failed",
				"kind", kind,
				"order_id", ev.OrderID,
				"error", err,
			)
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) OrderCreated(context.Context, OrderEvent)  {}
func (Nop) OrderApproved(context.Context, OrderEvent) {}
func (Nop) OrderRejected(context.Context, OrderEvent) {}
