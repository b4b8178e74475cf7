package pipeline

import "time"

// Step names the stages of a run, in their only legal order.
type Step string

const (
	StepReceived  Step = "received"
	StepValidated Step = "validated"
	StepChunked   Step = "chunked"
	StepEmbedded  Step = "embedded"
	StepIndexed   Step = "indexed"
	StepArchived  Step = "archived"
	StepCompleted Step = "completed"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Run is the orchestration state for one document, owned exclusively by the
// coordinator. Durability of progress belongs to the trigger substrate; this
// record exists so operators can see where a run is and how it ended.
type Run struct {
	Document   string
	Bucket     string
	Step       Step
	Attempts   map[Step]int
	Outcome    Outcome
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

func newRun(bucket, document string) *Run {
	return &Run{
		Document:  document,
		Bucket:    bucket,
		Step:      StepReceived,
		Attempts:  make(map[Step]int),
		StartedAt: time.Now(),
	}
}

func (r *Run) Terminal() bool {
	return r.Outcome != ""
}

func (r *Run) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
