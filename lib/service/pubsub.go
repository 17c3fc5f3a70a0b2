package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Pubsub fans payment events out to in-process subscribers, keyed by event name.
// Publishing never blocks: a subscriber whose channel is full misses the event.
type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan PaymentEvent
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan PaymentEvent)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan PaymentEvent) (subId string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan PaymentEvent)
	}
	subId = uuid.NewString()
	ps.subs[topic][subId] = ch
	return subId
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

// Publish returns how many subscribers missed the message.
func (ps *Pubsub) Publish(topic string, msg PaymentEvent) (dropped int) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, ch := range ps.subs[topic] {
		select {
		case ch <- msg:
		default:
			dropped++
		}
	}
	return dropped
}

func (ps *Pubsub) Notify(ctx context.Context, event PaymentEvent) error {
	if dropped := ps.Publish(event.Event, event); dropped > 0 {
		return fmt.Errorf("pubsub: %d subscribers missed %s for invoice %d", dropped, event.Event, event.Invoice.ID)
	}
	return nil
}

var _ Notifier = (*Pubsub)(nil)
