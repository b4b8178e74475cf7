package index

import (
	"context"
	"fmt"
	"log"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oranjParker/Paperbase/internal/core"
)

// pointsClient is the slice of *qdrant.Client the gateway uses; tests swap in
// a fake.
type pointsClient interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

type Options struct {
	Collection string
	VectorDim  int
	BatchSize  int
	HnswM      int
	HnswEf     int
}

// Gateway owns the index schema, the upload batching policy, and
// partial-failure reporting. Records are keyed by chunk UUID, so retried
// uploads overwrite instead of duplicating.
type Gateway struct {
	client pointsClient
	opts   Options
}

func NewGateway(client pointsClient, opts Options) *Gateway {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Gateway{client: client, opts: opts}
}

// EnsureCollection creates the collection if absent. Two first-time runs can
// race creation; the loser's AlreadyExists is success, not an error.
func (g *Gateway) EnsureCollection(ctx context.Context) error {
	exists, err := g.client.CollectionExists(ctx, g.opts.Collection)
	if err != nil {
		return classify(fmt.Errorf("collection lookup: %w", err))
	}
	if exists {
		return nil
	}

	log.Printf("[Index] Creating collection %s (dim=%d)", g.opts.Collection, g.opts.VectorDim)

	err = g.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: g.opts.Collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(g.opts.VectorDim),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
		HnswConfig: &qdrant.HnswConfigDiff{
			M:           qdrant.PtrOf(uint64(g.opts.HnswM)),
			EfConstruct: qdrant.PtrOf(uint64(g.opts.HnswEf)),
		},
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return classify(fmt.Errorf("create collection: %w", err))
	}
	return nil
}

// UpsertBatch uploads records in batches no larger than the configured
// maximum. A failed batch is reported with its record keys and surfaced as a
// retryable error; the caller retries the whole step, which is safe because
// upserts overwrite by key.
func (g *Gateway) UpsertBatch(ctx context.Context, records []core.IndexRecord) error {
	for _, r := range records {
		if g.opts.VectorDim > 0 && len(r.ContentVector) != g.opts.VectorDim {
			return fmt.Errorf("%w: record %s has vector dimension %d, index expects %d",
				core.ErrConfig, r.ChunkID, len(r.ContentVector), g.opts.VectorDim)
		}
	}

	for start := 0; start < len(records); start += g.opts.BatchSize {
		end := start + g.opts.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		points := make([]*qdrant.PointStruct, 0, len(batch))
		for _, r := range batch {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(r.ChunkID),
				Vectors: qdrant.NewVectors(r.ContentVector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"content":    r.Content,
					"title":      r.Title,
					"pageNumber": int64(r.PageNumber),
				}),
			})
		}

		wait := true
		if _, err := g.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: g.opts.Collection,
			Wait:           &wait,
			Points:         points,
		}); err != nil {
			return &BatchError{
				Offset:   start,
				ChunkIDs: keys(batch),
				Err:      classify(err),
			}
		}

		log.Printf("[Index] Upserted batch of %d records into %s", len(batch), g.opts.Collection)
	}

	return nil
}

// Search runs a vector query and maps payloads back into scored results.
func (g *Gateway) Search(ctx context.Context, vector []float32, k uint64) ([]core.SearchResult, error) {
	if k == 0 {
		k = 3
	}

	points, err := g.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: g.opts.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &k,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classify(fmt.Errorf("query: %w", err))
	}

	results := make([]core.SearchResult, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		results = append(results, core.SearchResult{
			Title:      payload["title"].GetStringValue(),
			PageNumber: int(payload["pageNumber"].GetIntegerValue()),
			Content:    payload["content"].GetStringValue(),
			Score:      p.GetScore(),
		})
	}
	return results, nil
}

func keys(records []core.IndexRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ChunkID
	}
	return out
}

func classify(err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied, codes.InvalidArgument:
		return fmt.Errorf("%w: %v", core.ErrConfig, err)
	}
	return core.Transient(err)
}
