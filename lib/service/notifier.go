package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpyhq/cryptobill/db/models"
)

type PaymentEvent struct {
	Event      string                    `json:"event"`
	Invoice    models.Invoice            `json:"invoice"`
	Payment    models.PaymentTransaction `json:"payment"`
	OccurredAt time.Time                 `json:"occurred_at"`
}

// Notifier receives payment_detected and payment_confirmed events.
// Errors are logged by the poller and never change the outcome of a payment.
type Notifier interface {
	Notify(ctx context.Context, event PaymentEvent) error
}

type NotifierFunc func(ctx context.Context, event PaymentEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event PaymentEvent) error {
	return f(ctx, event)
}

// MultiNotifier delivers every event to all of its notifiers, one failing
// notifier does not keep the event from the others.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event PaymentEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Poller) notify(ctx context.Context, event string, invoice *models.Invoice, payment *models.PaymentTransaction) {
	if p.Notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Errorf("Notifier panicked event:%s invoice_id:%v: %v", event, invoice.ID, r)
		}
	}()
	err := p.Notifier.Notify(ctx, PaymentEvent{
		Event:      event,
		Invoice:    *invoice,
		Payment:    *payment,
		OccurredAt: p.now(),
	})
	if err != nil {
		p.Logger.Errorf("Failed to notify event:%s invoice_id:%v payment_id:%v: %v", event, invoice.ID, payment.ID, fmt.Errorf("notify: %w", err))
	}
}
