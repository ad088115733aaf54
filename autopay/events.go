package autopay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stablehop/stablehop/types"
)

type EventType string

const (
	EventPaymentRequired EventType = "payment_required"
	EventPaymentSigned   EventType = "payment_signed"
	EventPaymentSettled  EventType = "payment_settled"
	EventPaymentFailed   EventType = "payment_failed"
)

// Event describes one step of a payment.
type Event struct {
	ID        string
	Type      EventType
	InvoiceID string
	Option    *types.PaymentOption
	Receipt   *types.PaymentReceipt
	Err       error
	Time      time.Time
}

// Handler observes payment events. Errors and panics are logged and never
// reach the payment.
type Handler func(ctx context.Context, e Event) error

// On registers h for every subsequent event.
func (c *Client) On(h Handler) {
	if h == nil {
		return
	}
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
}

func (c *Client) emit(ctx context.Context, e Event) {
	e.ID = uuid.NewString()
	e.Time = c.now()

	c.mu.RLock()
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.RUnlock()

	for _, h := range handlers {
		if err := c.callHandler(ctx, h, e); err != nil {
			c.logger.Warn("payment event handler failed", map[string]any{
				"event":     string(e.Type),
				"eventId":   e.ID,
				"invoiceId": e.InvoiceID,
				"error":     err,
			})
		}
	}
}

func (c *Client) callHandler(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, e)
}
