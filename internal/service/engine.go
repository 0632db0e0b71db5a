package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"toolkitrag/internal/answer"
	"toolkitrag/internal/chunker"
	"toolkitrag/internal/domain"
	"toolkitrag/internal/embedding"
	"toolkitrag/internal/retriever"
	"toolkitrag/internal/source"
	"toolkitrag/internal/summarizer"
)

// Deps carries the engine's collaborators, constructed and validated at
// startup.
type Deps struct {
	Chunker    *chunker.BlockChunker
	Embedder   embedding.Provider
	Store      domain.ChunkStore
	Retriever  *retriever.Retriever
	Assembler  *answer.Assembler
	ChatLog    domain.ChatLogSink
	Summarizer *summarizer.Summarizer

	TopK                int
	SimilarityThreshold float64
	Logger              zerolog.Logger
}

// Engine is the core facade: ingestion on one side, search and grounded
// answering on the other. Each request is a stateless unit of work; the only
// shared state is the read-mostly chunk store.
type Engine struct {
	deps Deps
}

// New creates the engine.
func New(deps Deps) *Engine {
	if deps.TopK <= 0 {
		deps.TopK = 5
	}
	return &Engine{deps: deps}
}

// IngestReport describes one completed ingestion.
type IngestReport struct {
	DocumentID string
	Version    string
	ChunkCount int
	Summary    string
}

// IngestBlocks chunks, stores, and embeds one document's content blocks.
// No chunk with empty text is ever persisted.
func (e *Engine) IngestBlocks(ctx context.Context, version string, blocks []domain.ContentBlock, meta domain.Metadata) (IngestReport, error) {
	chunks, err := e.deps.Chunker.Chunk(blocks)
	if err != nil {
		return IngestReport{}, err
	}
	if len(chunks) == 0 {
		return IngestReport{}, fmt.Errorf("%w: no extractable content", domain.ErrInvalidInput)
	}

	documentID := uuid.NewString()
	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		chunks[i].DocumentID = documentID
		chunks[i].DocumentVersion = version
		chunks[i].Metadata = meta
		if chunks[i].Text == "" {
			return IngestReport{}, fmt.Errorf("%w: chunker produced empty chunk", domain.ErrInvalidInput)
		}
		if err := e.deps.Store.Insert(ctx, chunks[i]); err != nil {
			return IngestReport{}, fmt.Errorf("storing chunk %d: %w", chunks[i].Index, err)
		}
	}

	for i := range chunks {
		vec, err := e.deps.Embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return IngestReport{}, err
		}
		if err := e.deps.Store.AttachEmbedding(ctx, chunks[i].ID, vec); err != nil {
			return IngestReport{}, fmt.Errorf("attaching embedding for chunk %d: %w", chunks[i].Index, err)
		}
	}

	report := IngestReport{
		DocumentID: documentID,
		Version:    version,
		ChunkCount: len(chunks),
	}
	if e.deps.Summarizer != nil {
		report.Summary = e.deps.Summarizer.SummarizeBlocks(blocks)
	}
	e.deps.Logger.Info().
		Str("document_id", documentID).
		Str("version", version).
		Int("chunks", len(chunks)).
		Msg("document ingested")
	return report, nil
}

// IngestFile reads a plaintext or markdown file and ingests it.
func (e *Engine) IngestFile(ctx context.Context, path, version string, meta domain.Metadata) (IngestReport, error) {
	blocks, err := source.ReadFile(path)
	if err != nil {
		return IngestReport{}, err
	}
	return e.IngestBlocks(ctx, version, blocks, meta)
}

// Search embeds the query text and returns ranked results. TopK falls back
// to the configured default when non-positive; a negative threshold selects
// the configured default (zero is a valid explicit threshold).
func (e *Engine) Search(ctx context.Context, query domain.Query) ([]domain.SearchResult, error) {
	if query.Text == "" {
		return nil, fmt.Errorf("%w: empty query text", domain.ErrInvalidInput)
	}
	topK := query.TopK
	if topK <= 0 {
		topK = e.deps.TopK
	}
	threshold := query.SimilarityThreshold
	if threshold < 0 {
		threshold = e.deps.SimilarityThreshold
	}

	vec, err := e.deps.Embedder.Embed(ctx, query.Text)
	if err != nil {
		return nil, err
	}
	return e.deps.Retriever.Search(ctx, vec, topK, threshold, query.Filters)
}

// Answer runs the full embed, retrieve, assemble sequence and records the
// outcome in the chat log. A chat log failure is logged and never fails the
// answer; the log is written only once the full record is ready.
func (e *Engine) Answer(ctx context.Context, query domain.Query) (domain.AnswerRecord, error) {
	results, err := e.Search(ctx, query)
	if err != nil {
		return domain.AnswerRecord{}, err
	}

	record, err := e.deps.Assembler.Assemble(ctx, query, results)
	if err != nil {
		return domain.AnswerRecord{}, err
	}

	if e.deps.ChatLog != nil {
		if err := e.deps.ChatLog.Append(ctx, record); err != nil {
			e.deps.Logger.Warn().Err(err).Str("query", query.Text).Msg("chat log append failed")
		}
	}
	return record, nil
}
