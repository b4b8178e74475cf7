package core

import "time"

// TriggerEvent is the landing notification for a new object in the source
// bucket. Delivery is at-least-once; consumers must tolerate duplicates.
type TriggerEvent struct {
	Bucket     string    `json:"bucket"`
	Object     string    `json:"object"`
	ObservedAt time.Time `json:"observed_at"`
	Ack        func()    `json:"-"`
}

func (e *TriggerEvent) DoAck() {
	if e != nil && e.Ack != nil {
		e.Ack()
	}
}

// Page is one extracted unit of text from a source document.
// Numbering is 1-based, matching physical pages.
type Page struct {
	Document string
	Number   int
	Text     string
}

// Chunk is a bounded span of page text with provenance. The ID is assigned
// exactly once at chunking time and is the index's primary key.
type Chunk struct {
	ID         string
	Title      string
	PageNumber int
	Text       string
}

// EmbeddedChunk pairs a chunk with its vector. The vector length is fixed by
// the embedding deployment and must match the index schema.
type EmbeddedChunk struct {
	Chunk
	Vector []float32
}

// IndexRecord is the persisted external representation of a chunk.
// Re-uploading a record with the same ChunkID overwrites; retried batches
// lean on that for idempotency.
type IndexRecord struct {
	ChunkID       string
	Content       string
	Title         string
	PageNumber    int
	ContentVector []float32
}

func (c EmbeddedChunk) Record() IndexRecord {
	return IndexRecord{
		ChunkID:       c.ID,
		Content:       c.Text,
		Title:         c.Title,
		PageNumber:    c.PageNumber,
		ContentVector: c.Vector,
	}
}

// SearchResult is one scored hit from the index.
type SearchResult struct {
	Title      string
	PageNumber int
	Content    string
	Score      float32
}
