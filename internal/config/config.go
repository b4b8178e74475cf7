package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is read once at startup and passed by reference into the coordinator
// and gateways. Nothing in here is mutated after Load returns.
type Config struct {
	NATS struct {
		URL           string `yaml:"url"`
		Subject       string `yaml:"subject"`
		Queue         string `yaml:"queue"`
		Stream        string `yaml:"stream"`
		SourceBucket  string `yaml:"source_bucket"`
		ArchiveBucket string `yaml:"archive_bucket"`
	} `yaml:"nats"`

	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`

	Redis struct {
		URL          string `yaml:"url"`
		LeaseTTLSecs int    `yaml:"lease_ttl_secs"`
	} `yaml:"redis"`

	Index struct {
		Addr        string `yaml:"addr"`
		Collection  string `yaml:"collection"`
		VectorDim   int    `yaml:"vector_dim"`
		BatchSize   int    `yaml:"batch_size"`
		HnswM       int    `yaml:"hnsw_m"`
		HnswEf      int    `yaml:"hnsw_ef_construct"`
		TimeoutSecs int    `yaml:"timeout_secs"`
	} `yaml:"index"`

	Embedding struct {
		Model string `yaml:"model"`
	} `yaml:"embedding"`

	LLM struct {
		Model     string `yaml:"model"`
		OllamaURL string `yaml:"ollama_url"`
		TopK      int    `yaml:"top_k"`
	} `yaml:"llm"`

	Chunker struct {
		ChunkSize int `yaml:"chunk_size"`
		Overlap   int `yaml:"overlap"`
	} `yaml:"chunker"`

	Pipeline struct {
		Concurrency      int `yaml:"concurrency"`
		MaxAttempts      int `yaml:"max_attempts"`
		BaseDelayMillis  int `yaml:"base_delay_millis"`
		MaxDelaySecs     int `yaml:"max_delay_secs"`
		StepTimeoutSecs  int `yaml:"step_timeout_secs"`
		ThrottleInterval int `yaml:"throttle_interval_millis"`
	} `yaml:"pipeline"`
}

// Load reads the YAML file at path (optional), applies defaults, then lets
// environment variables override connection endpoints and secrets.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Overlap zero is a legal setting; seed a sentinel so an explicit 0 in
	// the file is distinguishable from unset.
	cfg.Chunker.Overlap = -1

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyDefaults(cfg)
	mergeEnv(cfg)

	if cfg.Chunker.Overlap >= cfg.Chunker.ChunkSize {
		return nil, fmt.Errorf("chunker overlap %d must be smaller than chunk size %d", cfg.Chunker.Overlap, cfg.Chunker.ChunkSize)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "ingest.jobs"
	}
	if cfg.NATS.Queue == "" {
		cfg.NATS.Queue = "ingest-workers"
	}
	if cfg.NATS.Stream == "" {
		cfg.NATS.Stream = "INGEST"
	}
	if cfg.NATS.SourceBucket == "" {
		cfg.NATS.SourceBucket = "load"
	}
	if cfg.NATS.ArchiveBucket == "" {
		cfg.NATS.ArchiveBucket = "completed"
	}
	if cfg.Redis.LeaseTTLSecs == 0 {
		cfg.Redis.LeaseTTLSecs = 600
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "documents"
	}
	if cfg.Index.VectorDim == 0 {
		cfg.Index.VectorDim = 768
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 100
	}
	if cfg.Index.HnswM == 0 {
		cfg.Index.HnswM = 16
	}
	if cfg.Index.HnswEf == 0 {
		cfg.Index.HnswEf = 100
	}
	if cfg.Index.TimeoutSecs == 0 {
		cfg.Index.TimeoutSecs = 30
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-004"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash-preview-09-2025"
	}
	if cfg.LLM.TopK == 0 {
		cfg.LLM.TopK = 3
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.Overlap < 0 {
		cfg.Chunker.Overlap = 200
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = 5
	}
	if cfg.Pipeline.MaxAttempts == 0 {
		cfg.Pipeline.MaxAttempts = 4
	}
	if cfg.Pipeline.BaseDelayMillis == 0 {
		cfg.Pipeline.BaseDelayMillis = 500
	}
	if cfg.Pipeline.MaxDelaySecs == 0 {
		cfg.Pipeline.MaxDelaySecs = 15
	}
	if cfg.Pipeline.StepTimeoutSecs == 0 {
		cfg.Pipeline.StepTimeoutSecs = 120
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("QDRANT_GRPC_URL"); v != "" {
		cfg.Index.Addr = v
	}
	if v := os.Getenv("INGEST_COLLECTION"); v != "" {
		cfg.Index.Collection = v
	}
	if v := os.Getenv("DOCUMENT_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Chunker.ChunkSize = n
		}
	}
	if v := os.Getenv("DOCUMENT_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Chunker.Overlap = n
		}
	}
	if v := os.Getenv("INGEST_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Index.BatchSize = n
		}
	}
}

func (c *Config) LeaseTTL() time.Duration {
	return time.Duration(c.Redis.LeaseTTLSecs) * time.Second
}

func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.Pipeline.StepTimeoutSecs) * time.Second
}

func (c *Config) ThrottleInterval() time.Duration {
	return time.Duration(c.Pipeline.ThrottleInterval) * time.Millisecond
}

func (c *Config) RetryPolicy() (maxAttempts int, base, max time.Duration) {
	return c.Pipeline.MaxAttempts,
		time.Duration(c.Pipeline.BaseDelayMillis) * time.Millisecond,
		time.Duration(c.Pipeline.MaxDelaySecs) * time.Second
}
