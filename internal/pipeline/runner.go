package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Runner fans the trigger stream over a pool of workers, each driving the
// coordinator for one document at a time. Runs for different documents are
// fully independent; one run blocked on I/O never stalls the others.
type Runner struct {
	Source      TriggerStream
	Coord       *Coordinator
	Concurrency int
	Name        string
}

func NewRunner(src TriggerStream, coord *Coordinator, concurrency int, name string) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		Source:      src,
		Coord:       coord,
		Concurrency: concurrency,
		Name:        name,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	stream, err := r.Source.Stream(ctx)
	if err != nil {
		return fmt.Errorf("runner [%s] source error: %w", r.Name, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < r.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for ev := range stream {
				select {
				case <-ctx.Done():
					return
				default:
				}

				run, err := r.Coord.Process(ctx, ev)
				if errors.Is(err, ErrLeaseHeld) {
					// Leave the message unacked; it comes back after the
					// in-flight run releases the document.
					log.Printf("[Runner %d] %s in progress elsewhere, deferring", workerID, ev.Object)
					continue
				}

				// A run cut short by shutdown is not a terminal outcome.
				// Leave the message unacked so the document is redelivered
				// after restart.
				if run.Outcome == OutcomeFailed && errors.Is(run.Err, context.Canceled) {
					log.Printf("[Runner %d] %s interrupted at %s, leaving for redelivery", workerID, ev.Object, run.Step)
					continue
				}

				// Terminal state reached, including Failed: ack so the queue
				// moves on. Retrying a failed run is a re-trigger decision,
				// not a redelivery loop.
				ev.DoAck()
				log.Printf("[Runner %d] %s -> %s %s", workerID, run.Document, run.Outcome, run.Reason())
			}
		}(i)
	}

	wg.Wait()
	return nil
}
