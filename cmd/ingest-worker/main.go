package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/oranjParker/Paperbase/internal/chunker"
	"github.com/oranjParker/Paperbase/internal/config"
	"github.com/oranjParker/Paperbase/internal/core"
	"github.com/oranjParker/Paperbase/internal/database"
	"github.com/oranjParker/Paperbase/internal/embedding"
	"github.com/oranjParker/Paperbase/internal/index"
	"github.com/oranjParker/Paperbase/internal/pipeline"
	"github.com/oranjParker/Paperbase/internal/storage"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("PAPERBASE_CONFIG"))
	if err != nil {
		log.Fatalf("Config failure: %v", err)
	}

	deps, err := setupWorkerDependencies(ctx, cfg)
	if err != nil {
		log.Fatalf("Infrastructure failure: %v", err)
	}
	defer deps.Nats.Close()
	defer deps.Redis.Close()
	defer deps.Postgres.Close()
	defer deps.Qdrant.Close()
	defer deps.Genai.Close()

	runs, err := pipeline.NewPostgresRunStore(ctx, deps.Postgres)
	if err != nil {
		log.Fatalf("Run store init: %v", err)
	}

	gateway := index.NewGateway(deps.Qdrant, index.Options{
		Collection: cfg.Index.Collection,
		VectorDim:  cfg.Index.VectorDim,
		BatchSize:  cfg.Index.BatchSize,
		HnswM:      cfg.Index.HnswM,
		HnswEf:     cfg.Index.HnswEf,
	})
	if err := gateway.EnsureCollection(ctx); err != nil {
		log.Printf("Warning: collection setup: %v", err)
	}

	maxAttempts, baseDelay, maxDelay := cfg.RetryPolicy()
	coord := &pipeline.Coordinator{
		Blobs:         storage.NewBlobStore(deps.Nats.JS),
		Index:         gateway,
		Embedder:      embedding.NewGeminiEmbedder(deps.Genai, cfg.Embedding.Model, cfg.Index.VectorDim),
		Chunker:       chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap),
		Runs:          runs,
		Lease:         pipeline.NewLease(deps.Redis, cfg.LeaseTTL()),
		Retry:         core.RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, MaxDelay: maxDelay},
		SourceBucket:  cfg.NATS.SourceBucket,
		ArchiveBucket: cfg.NATS.ArchiveBucket,
		StepTimeout:   cfg.StepTimeout(),
	}

	if err := pipeline.EnsureStream(deps.Nats.JS, cfg.NATS.Stream, cfg.NATS.Subject); err != nil {
		log.Fatalf("Stream setup: %v", err)
	}

	var src pipeline.TriggerStream = pipeline.NewNatsTrigger(deps.Nats.JS, cfg.NATS.Subject, cfg.NATS.Queue)
	if interval := cfg.ThrottleInterval(); interval > 0 {
		src = pipeline.NewThrottledTrigger(src, interval)
	}

	runner := pipeline.NewRunner(src, coord, cfg.Pipeline.Concurrency, "Paperbase-Ingest-Worker")

	log.Println("Ingest worker ready. Awaiting documents...")
	if err := runner.Run(ctx); err != nil {
		log.Printf("Worker exited: %v", err)
	}
}

type WorkerDependencies struct {
	Nats     *database.NatsConn
	Redis    *redis.Client
	Postgres *pgxpool.Pool
	Qdrant   *qdrant.Client
	Genai    *genai.Client
}

func setupWorkerDependencies(ctx context.Context, cfg *config.Config) (*WorkerDependencies, error) {
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pg, err := database.NewPool(initCtx, cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}

	rdb, err := database.NewRedisClient(initCtx, cfg.Redis.URL)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("redis init: %w", err)
	}

	nt, err := database.NewNatsConnection(cfg.NATS.URL)
	if err != nil {
		pg.Close()
		rdb.Close()
		return nil, fmt.Errorf("nats init: %w", err)
	}

	qdb, err := database.NewQdrantClient(cfg.Index.Addr)
	if err != nil {
		pg.Close()
		rdb.Close()
		nt.Close()
		return nil, fmt.Errorf("qdrant init: %w", err)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		pg.Close()
		rdb.Close()
		nt.Close()
		qdb.Close()
		return nil, fmt.Errorf("GEMINI_API_KEY is required for embeddings")
	}

	gc, err := genai.NewClient(initCtx, option.WithAPIKey(geminiKey))
	if err != nil {
		pg.Close()
		rdb.Close()
		nt.Close()
		qdb.Close()
		return nil, fmt.Errorf("genai init: %w", err)
	}

	return &WorkerDependencies{
		Nats:     nt,
		Redis:    rdb,
		Postgres: pg,
		Qdrant:   qdb,
		Genai:    gc,
	}, nil
}
