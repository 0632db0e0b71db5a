package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"toolkitrag/internal/answer"
	"toolkitrag/internal/chatlog"
	"toolkitrag/internal/chunker"
	"toolkitrag/internal/config"
	"toolkitrag/internal/domain"
	"toolkitrag/internal/embedding"
	"toolkitrag/internal/generation"
	"toolkitrag/internal/retriever"
	"toolkitrag/internal/service"
	"toolkitrag/internal/store/memory"
	"toolkitrag/internal/store/qdrant"
	"toolkitrag/internal/store/sqlite"
	"toolkitrag/internal/summarizer"
	"toolkitrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		version string
		cluster string
		tool    string
		tags    string
	)
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.StringVar(&version, "version", "v1", "Version tag stamped on ingested documents")
	flag.StringVar(&cluster, "cluster", "", "Cluster label for ingested documents")
	flag.StringVar(&tool, "tool", "", "Tool name label for ingested documents")
	flag.StringVar(&tags, "tags", "", "Comma-separated tags for ingested documents")
	flag.Parse()
	inputs := flag.Args()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	embedder, err := embedding.NewProvider(cfg.Embedder)
	if err != nil {
		logger.Fatal().Err(err).Msg("embedding provider init failed")
	}
	generator, err := generation.NewGenerator(cfg.Generator)
	if err != nil {
		logger.Fatal().Err(err).Msg("generator init failed")
	}

	var (
		chunkStore domain.ChunkStore
		chatLog    domain.ChatLogSink
	)
	switch cfg.Store.Type {
	case "memory", "":
		chunkStore = memory.NewStore()
		chatLog = chatlog.NewMemoryRecorder()
	case "sqlite":
		st, err := sqlite.NewStore(cfg.Store.SQLite.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite store init failed")
		}
		defer st.Close()
		chunkStore = st
		chatLog = st.ChatLog()
	case "qdrant":
		st, err := qdrant.NewStore(qdrant.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			Dimension:  embedder.Dimensions(),
			Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("qdrant store init failed")
		}
		chunkStore = st
		chatLog = chatlog.NewMemoryRecorder()
	default:
		logger.Fatal().Str("type", cfg.Store.Type).Msg("unknown store type")
	}

	engine := service.New(service.Deps{
		Chunker:             chunker.New(cfg.Chunker.TargetMin, cfg.Chunker.TargetMax, cfg.Chunker.Overlap),
		Embedder:            embedder,
		Store:               chunkStore,
		Retriever:           retriever.New(chunkStore),
		Assembler:           answer.New(generator, cfg.Retrieval.MaxContextChars, cfg.Retrieval.SnippetChars),
		ChatLog:             chatLog,
		Summarizer:          summarizer.New(0),
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		Logger:              logger,
	})

	meta := domain.Metadata{Cluster: cluster, ToolName: tool, Tags: splitTags(tags)}
	ctx := context.Background()
	var summaries []string
	for _, path := range inputs {
		report, err := engine.IngestFile(ctx, path, version, meta)
		if err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("ingest failed")
		}
		if report.Summary != "" {
			summaries = append(summaries, report.Summary)
		}
	}
	if len(inputs) == 0 {
		fmt.Println("Usage: toolkitrag [--config=config.yaml] [--version=v1] file1.md [file2.txt ...]")
		fmt.Println("Starting with the existing store contents.")
	}

	m := tui.New(engine, strings.Join(summaries, " "))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Fatal().Err(err).Msg("tui terminated")
	}
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
