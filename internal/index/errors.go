package index

import "fmt"

// BatchError reports a failed upload batch with the record keys it carried.
// Retryability rides on the wrapped error; the failing step is retried in
// full, and overwrite-by-key keeps that safe.
type BatchError struct {
	Offset   int
	ChunkIDs []string
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upsert batch at offset %d (%d records) failed: %v", e.Offset, len(e.ChunkIDs), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
