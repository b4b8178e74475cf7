package main

import (
	"context"
	"encoding/json"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/oranjParker/Paperbase/internal/config"
	"github.com/oranjParker/Paperbase/internal/core"
	"github.com/oranjParker/Paperbase/internal/database"
	"github.com/oranjParker/Paperbase/internal/pipeline"
	"github.com/oranjParker/Paperbase/internal/storage"
)

// Pushes local PDFs into the landing bucket and publishes one trigger event
// per upload, exactly what the storage notification would do in production.
func main() {
	_ = godotenv.Load()

	root := "./docs"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	cfg, err := config.Load(os.Getenv("PAPERBASE_CONFIG"))
	if err != nil {
		log.Fatalf("Config failure: %v", err)
	}

	nt, err := database.NewNatsConnection(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("NATS init: %v", err)
	}
	defer nt.Close()

	if err := pipeline.EnsureStream(nt.JS, cfg.NATS.Stream, cfg.NATS.Subject); err != nil {
		log.Fatalf("Stream setup: %v", err)
	}

	files, err := collectPDFs(root)
	if err != nil {
		log.Fatalf("Scanning %s: %v", root, err)
	}
	if len(files) == 0 {
		color.Yellow("No PDF files found under %s", root)
		return
	}

	ctx := context.Background()
	blobs := storage.NewBlobStore(nt.JS)
	bar := progressbar.Default(int64(len(files)), "uploading")

	uploaded := 0
	for _, file := range files {
		if err := uploadOne(ctx, blobs, nt, cfg, file); err != nil {
			color.Red("\n%s: %v", file, err)
		} else {
			uploaded++
		}
		_ = bar.Add(1)
	}

	color.Green("Uploaded %d/%d documents to bucket %q", uploaded, len(files), cfg.NATS.SourceBucket)
}

func collectPDFs(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func uploadOne(ctx context.Context, blobs *storage.BlobStore, nt *database.NatsConn, cfg *config.Config, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	name := filepath.Base(file)
	if err := blobs.Write(ctx, cfg.NATS.SourceBucket, name, data); err != nil {
		return err
	}

	event, err := json.Marshal(core.TriggerEvent{
		Bucket:     cfg.NATS.SourceBucket,
		Object:     name,
		ObservedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	_, err = nt.JS.Publish(cfg.NATS.Subject, event)
	return err
}
