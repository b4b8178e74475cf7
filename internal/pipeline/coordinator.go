package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/oranjParker/Paperbase/internal/core"
)

// ErrLeaseHeld means another run currently owns the document. The event is
// left unacked so the trigger substrate redelivers it later.
var ErrLeaseHeld = errors.New("document lease held by another run")

type BlobStore interface {
	Read(ctx context.Context, bucket, name string) ([]byte, error)
	Write(ctx context.Context, bucket, name string, data []byte) error
	Delete(ctx context.Context, bucket, name string) error
}

type Indexer interface {
	EnsureCollection(ctx context.Context) error
	UpsertBatch(ctx context.Context, records []core.IndexRecord) error
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Chunker interface {
	ChunkDocument(data []byte, title string) ([]core.Chunk, error)
}

// Coordinator drives one document through the fixed step sequence
// chunk → embed → index → archive → delete. Steps are strictly sequential
// within a run; every external call is bounded by StepTimeout and retried per
// the policy. The whole sequence is safe to repeat for the same source
// object: index upserts overwrite by key, archive writes overwrite, and a
// source that is already gone is a finished run, not an error.
type Coordinator struct {
	Blobs    BlobStore
	Index    Indexer
	Embedder Embedder
	Chunker  Chunker

	Runs  RunStore
	Lease *Lease
	Retry core.RetryPolicy

	SourceBucket  string
	ArchiveBucket string
	StepTimeout   time.Duration
}

// Process executes the full run for one landing event and returns its
// terminal state. The only non-nil error is ErrLeaseHeld; everything else is
// reported inside the run.
func (c *Coordinator) Process(ctx context.Context, ev *core.TriggerEvent) (*Run, error) {
	bucket := ev.Bucket
	if bucket == "" {
		bucket = c.SourceBucket
	}
	run := newRun(bucket, ev.Object)

	if c.Lease != nil {
		ok, err := c.Lease.Acquire(ctx, run.Document)
		if err != nil {
			// Lease is an optimization; idempotency covers concurrent runs.
			log.Printf("[Pipeline] Lease acquire for %s failed, proceeding without: %v", run.Document, err)
		} else if !ok {
			return run, ErrLeaseHeld
		} else {
			defer func() {
				if err := c.Lease.Release(context.WithoutCancel(ctx), run.Document); err != nil {
					log.Printf("[Pipeline] Lease release for %s: %v", run.Document, err)
				}
			}()
		}
	}

	c.record(ctx, run, recordStarted)
	defer func() {
		run.FinishedAt = time.Now()
		c.record(ctx, run, recordFinished)
	}()

	// Received -> Validated: anything but a .pdf is intentionally ignored.
	if !strings.EqualFold(path.Ext(run.Document), ".pdf") {
		log.Printf("[Pipeline] Skipping %s: not a pdf", run.Document)
		run.Outcome = OutcomeSkipped
		return run, nil
	}
	run.Step = StepValidated
	c.record(ctx, run, recordStep)

	// Validated -> Chunked: fetch the source and cut it into chunks. Fresh
	// chunk IDs are minted here on every (re)entry; nothing downstream has
	// happened yet, so regenerated IDs cannot orphan index records.
	var data []byte
	var chunks []core.Chunk
	title := path.Base(run.Document)

	err := c.step(ctx, run, StepChunked, func(ctx context.Context) error {
		var err error
		if data, err = c.Blobs.Read(ctx, bucket, run.Document); err != nil {
			return err
		}
		chunks, err = c.Chunker.ChunkDocument(data, title)
		return err
	})
	if errors.Is(err, core.ErrNotFound) {
		// Duplicate trigger for an object a prior run already archived away.
		log.Printf("[Pipeline] Source %s/%s already gone, nothing to process", bucket, run.Document)
		run.Outcome = OutcomeSkipped
		return run, nil
	}
	if err != nil {
		return c.fail(run, StepChunked, err), nil
	}
	log.Printf("[Pipeline] %s: %d chunks", run.Document, len(chunks))

	// Chunked -> Embedded: one vector per chunk, all or nothing. A partial
	// embedding failure retries the whole step rather than dropping chunks.
	var embedded []core.EmbeddedChunk
	err = c.step(ctx, run, StepEmbedded, func(ctx context.Context) error {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		vectors, err := c.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		embedded = embedded[:0]
		for i, ch := range chunks {
			embedded = append(embedded, core.EmbeddedChunk{Chunk: ch, Vector: vectors[i]})
		}
		return nil
	})
	if err != nil {
		return c.fail(run, StepEmbedded, err), nil
	}

	// Embedded -> Indexed: ensure-then-upsert, both idempotent.
	err = c.step(ctx, run, StepIndexed, func(ctx context.Context) error {
		if err := c.Index.EnsureCollection(ctx); err != nil {
			return err
		}
		records := make([]core.IndexRecord, len(embedded))
		for i, ch := range embedded {
			records[i] = ch.Record()
		}
		return c.Index.UpsertBatch(ctx, records)
	})
	if err != nil {
		return c.fail(run, StepIndexed, err), nil
	}

	// Indexed -> Archived: the copy must exist before the source may go.
	err = c.step(ctx, run, StepArchived, func(ctx context.Context) error {
		return c.Blobs.Write(ctx, c.ArchiveBucket, run.Document, data)
	})
	if err != nil {
		return c.fail(run, StepArchived, err), nil
	}

	// Archived -> Completed: drop the source. Already-gone is success; a
	// duplicate run may have beaten us to it.
	err = c.step(ctx, run, StepCompleted, func(ctx context.Context) error {
		err := c.Blobs.Delete(ctx, bucket, run.Document)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return c.fail(run, StepCompleted, err), nil
	}

	run.Outcome = OutcomeCompleted
	log.Printf("[Pipeline] %s completed (%d chunks indexed)", run.Document, len(chunks))
	return run, nil
}

func (c *Coordinator) step(ctx context.Context, run *Run, s Step, fn func(context.Context) error) error {
	run.Step = s
	c.record(ctx, run, recordStep)

	return c.Retry.Do(ctx, fmt.Sprintf("%s %s", run.Document, s), func(ctx context.Context) error {
		run.Attempts[s]++
		if c.StepTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.StepTimeout)
			defer cancel()
		}
		return fn(ctx)
	})
}

// A failed run stops where it is. The source object stays put so a human or
// a re-trigger can retry from intact state.
func (c *Coordinator) fail(run *Run, s Step, err error) *Run {
	run.Outcome = OutcomeFailed
	run.Err = fmt.Errorf("%s: %w", s, err)
	log.Printf("[Pipeline] %s failed at %s: %v", run.Document, s, err)
	return run
}

type recordKind int

const (
	recordStarted recordKind = iota
	recordStep
	recordFinished
)

func (c *Coordinator) record(ctx context.Context, run *Run, kind recordKind) {
	if c.Runs == nil {
		return
	}
	var err error
	switch kind {
	case recordStarted:
		err = c.Runs.RunStarted(ctx, run)
	case recordStep:
		err = c.Runs.StepChanged(ctx, run)
	case recordFinished:
		err = c.Runs.RunFinished(ctx, run)
	}
	if err != nil {
		log.Printf("[Pipeline] Run store error for %s: %v", run.Document, err)
	}
}
