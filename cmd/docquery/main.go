package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docquery/internal/answer"
	"docquery/internal/chunker"
	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/embedding"
	"docquery/internal/extract"
	"docquery/internal/index"
	"docquery/internal/llm"
	"docquery/internal/service"
	"docquery/internal/store"
	"docquery/internal/syncer"
	"docquery/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docquery/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: docquery [--config=config.yaml] file1.txt [file2.txt ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = embedding.NewTFIDF()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := embedding.NewOpenAI(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var tab domain.Tabular
	switch cfg.Store.Type {
	case "memory", "":
		tab = store.NewMemory()
	case "sqlite":
		if cfg.Store.SQLite == nil {
			log.Fatalf("sqlite store config missing")
		}
		db, err := store.OpenSQLite(cfg.Store.SQLite.Path)
		if err != nil {
			log.Fatalf("sqlite store init failed: %v", err)
		}
		tab = db
	default:
		log.Fatalf("unknown store: %s", cfg.Store.Type)
	}
	defer tab.Close()

	var idx domain.VectorIndex
	switch cfg.Index.Type {
	case "memory", "":
		idx = index.NewMemory()
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		idx = index.NewQdrant(index.QdrantConfig{
			URL:     cfg.Index.Qdrant.URL,
			APIKey:  cfg.Index.Qdrant.APIKey,
			Timeout: time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown index: %s", cfg.Index.Type)
	}

	var gen domain.Generator
	switch cfg.Generator.Type {
	case "extractive", "":
		gen = llm.NewExtractive()
	case "openai":
		if cfg.Generator.OpenAI == nil {
			log.Fatalf("openai generator config missing")
		}
		client, err := llm.NewOpenAI(llm.OpenAIConfig{
			BaseURL:   cfg.Generator.OpenAI.BaseURL,
			APIKeyEnv: cfg.Generator.OpenAI.APIKeyEnv,
			Model:     cfg.Generator.OpenAI.Model,
			Timeout:   time.Duration(cfg.Generator.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		gen = client
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
	}

	ch, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("invalid chunker config: %v", err)
	}

	pipeline := service.New(extract.File{}, ch, syncer.New(tab, idx, emb), answer.New(gen), service.Config{
		StoreLocation: cfg.Store.Location,
		IndexName:     cfg.Index.Name,
		TopK:          cfg.Retrieval.TopK,
		Params: domain.GenerationParams{
			Temperature: cfg.Generator.Temperature,
			MaxTokens:   cfg.Generator.MaxTokens,
		},
	})

	stats, err := pipeline.Ingest(context.Background(), inputs...)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	state, _ := idx.State(context.Background(), cfg.Index.Name)
	status := fmt.Sprintf("Ingested %d file(s) into %d segments; index %q is %s",
		stats.Sources, stats.Segments, cfg.Index.Name, state)

	m := tui.New(pipeline, status)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
