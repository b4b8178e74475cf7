package pipeline

import (
	"context"
	"time"

	"github.com/oranjParker/Paperbase/internal/core"
)

// ThrottledTrigger spaces out event delivery. Useful when the embedding
// quota is tight and a bulk upload would otherwise burn it down.
type ThrottledTrigger struct {
	Src      TriggerStream
	Interval time.Duration
}

func NewThrottledTrigger(src TriggerStream, interval time.Duration) *ThrottledTrigger {
	return &ThrottledTrigger{Src: src, Interval: interval}
}

func (t *ThrottledTrigger) Stream(ctx context.Context) (<-chan *core.TriggerEvent, error) {
	srcStream, err := t.Src.Stream(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan *core.TriggerEvent)
	ticker := time.NewTicker(t.Interval)

	go func() {
		defer ticker.Stop()
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-srcStream:
				if !ok {
					return
				}
				select {
				case <-ticker.C:
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
