package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oranjParker/Paperbase/internal/core"
)

// TriggerStream is anything that yields landing events. The runner only
// depends on this.
type TriggerStream interface {
	Stream(ctx context.Context) (<-chan *core.TriggerEvent, error)
}

// NatsTrigger consumes landing events from a JetStream queue group. Delivery
// is at-least-once with explicit acks; the runner acks only on a terminal
// pipeline outcome, so an unfinished run gets redelivered.
type NatsTrigger struct {
	JS      nats.JetStreamContext
	Subject string
	Queue   string
}

func NewNatsTrigger(js nats.JetStreamContext, subject, queue string) *NatsTrigger {
	return &NatsTrigger{
		JS:      js,
		Subject: subject,
		Queue:   queue,
	}
}

// EnsureStream creates the backing stream on first deployment. A concurrent
// worker creating the same stream is fine.
func EnsureStream(js nats.JetStreamContext, name, subject string) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{subject},
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("ensure stream %s: %w", name, err)
	}
	return nil
}

func (n *NatsTrigger) Stream(ctx context.Context) (<-chan *core.TriggerEvent, error) {
	out := make(chan *core.TriggerEvent)

	sub, err := n.JS.QueueSubscribeSync(n.Subject, n.Queue, nats.AckExplicit())
	if err != nil {
		return nil, fmt.Errorf("nats subscription failed: %w", err)
	}

	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := sub.NextMsg(time.Second)
				if err != nil {
					if errors.Is(err, nats.ErrTimeout) {
						continue
					}
					log.Printf("[Trigger] NextMsg error: %v", err)
					continue
				}

				var ev core.TriggerEvent
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					log.Printf("[Trigger] Malformed JSON, terminating msg: %v", err)
					msg.Term()
					continue
				}
				if ev.Object == "" {
					log.Printf("[Trigger] Event without object name, terminating msg")
					msg.Term()
					continue
				}

				var once sync.Once
				ev.Ack = func() {
					once.Do(func() {
						if err := msg.Ack(); err != nil {
							log.Printf("[Trigger] Failed to ack msg for %s: %v", ev.Object, err)
						}
					})
				}

				select {
				case out <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
