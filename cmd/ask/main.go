package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/oranjParker/Paperbase/internal/config"
	"github.com/oranjParker/Paperbase/internal/database"
	"github.com/oranjParker/Paperbase/internal/embedding"
	"github.com/oranjParker/Paperbase/internal/index"
	"github.com/oranjParker/Paperbase/internal/llm"
	"github.com/oranjParker/Paperbase/internal/retrieval"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("PAPERBASE_CONFIG"))
	if err != nil {
		log.Fatalf("Config failure: %v", err)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(geminiKey))
	if err != nil {
		log.Fatalf("Genai init: %v", err)
	}
	defer gc.Close()

	qdb, err := database.NewQdrantClient(cfg.Index.Addr)
	if err != nil {
		log.Fatalf("Qdrant init: %v", err)
	}
	defer qdb.Close()

	var provider llm.Provider
	if ollamaURL := os.Getenv("OLLAMA_URL"); ollamaURL != "" {
		log.Println("[LLM] Using Ollama")
		provider = llm.NewOllamaProvider(ollamaURL, os.Getenv("OLLAMA_MODEL"))
	} else {
		log.Println("[LLM] Using Gemini")
		provider = llm.NewGeminiProvider(gc, cfg.LLM.Model)
	}

	answerer := &retrieval.Answerer{
		Embedder: embedding.NewGeminiEmbedder(gc, cfg.Embedding.Model, cfg.Index.VectorDim),
		Index: index.NewGateway(qdb, index.Options{
			Collection: cfg.Index.Collection,
			VectorDim:  cfg.Index.VectorDim,
		}),
		LLM:  provider,
		TopK: uint64(cfg.LLM.TopK),
	}

	if question := strings.TrimSpace(strings.Join(os.Args[1:], " ")); question != "" {
		askOnce(ctx, answerer, question)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" || question == "exit" || question == "quit" {
			return
		}
		askOnce(ctx, answerer, question)
	}
}

func askOnce(ctx context.Context, answerer *retrieval.Answerer, question string) {
	answer, err := answerer.Ask(ctx, question)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	color.Cyan("%s\n", answer.Text)
	for _, src := range answer.Sources {
		color.White("  %s (page %d, score %.3f)", src.Title, src.PageNumber, src.Score)
	}
}
