package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolkitrag/internal/answer"
	"toolkitrag/internal/chatlog"
	"toolkitrag/internal/chunker"
	"toolkitrag/internal/domain"
	"toolkitrag/internal/embedding/stub"
	"toolkitrag/internal/generation"
	"toolkitrag/internal/retriever"
	"toolkitrag/internal/store/memory"
	"toolkitrag/internal/summarizer"
)

type failingSink struct{}

func (failingSink) Append(context.Context, domain.AnswerRecord) error {
	return errors.New("sink unavailable")
}

func newTestEngine(t *testing.T, sink domain.ChatLogSink) *Engine {
	t.Helper()
	store := memory.NewStore()
	return New(Deps{
		Chunker:             chunker.New(800, 1200, 150),
		Embedder:            stub.New(64),
		Store:               store,
		Retriever:           retriever.New(store),
		Assembler:           answer.New(generation.NewStaticGenerator(0), 6000, 200),
		ChatLog:             sink,
		Summarizer:          summarizer.New(2),
		TopK:                5,
		SimilarityThreshold: 0.7,
		Logger:              zerolog.Nop(),
	})
}

func TestIngestBlocks_StampsChunks(t *testing.T) {
	store := memory.NewStore()
	e := New(Deps{
		Chunker:             chunker.New(800, 1200, 150),
		Embedder:            stub.New(64),
		Store:               store,
		Retriever:           retriever.New(store),
		Assembler:           answer.New(generation.NewStaticGenerator(0), 6000, 200),
		Summarizer:          summarizer.New(2),
		SimilarityThreshold: 0.7,
		Logger:              zerolog.Nop(),
	})

	ctx := context.Background()
	meta := domain.Metadata{Cluster: "ops", ToolName: "deployer", Tags: []string{"howto"}}
	report, err := e.IngestBlocks(ctx, "v3", []domain.ContentBlock{
		{Text: "Deployments roll out one replica at a time.", Heading: "Rollouts", Order: 0},
	}, meta)
	require.NoError(t, err)

	assert.NotEmpty(t, report.DocumentID)
	assert.Equal(t, "v3", report.Version)
	assert.Equal(t, 1, report.ChunkCount)
	assert.NotEmpty(t, report.Summary)

	stored, err := store.EmbeddedChunks(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, report.DocumentID, stored[0].Chunk.DocumentID)
	assert.Equal(t, "v3", stored[0].Chunk.DocumentVersion)
	assert.Equal(t, meta, stored[0].Chunk.Metadata)
	assert.NotEmpty(t, stored[0].Chunk.ID)
	assert.Len(t, stored[0].Vector, 64)
}

func TestIngestBlocks_EmptySequence(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.IngestBlocks(context.Background(), "v1", nil, domain.Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestBlocks_NoExtractableText(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.IngestBlocks(context.Background(), "v1",
		[]domain.ContentBlock{{Text: "   "}}, domain.Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestFile_Roundtrip(t *testing.T) {
	e := newTestEngine(t, nil)
	path := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Guide\n\nShort guide body."), 0o644))

	report, err := e.IngestFile(context.Background(), path, "v1", domain.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ChunkCount)
}

func TestAnswer_GroundedHit(t *testing.T) {
	sink := chatlog.NewMemoryRecorder()
	e := newTestEngine(t, sink)
	ctx := context.Background()

	text := "Certificates rotate automatically every thirty days."
	_, err := e.IngestBlocks(ctx, "v1", []domain.ContentBlock{{Text: text, Heading: "Rotation"}}, domain.Metadata{})
	require.NoError(t, err)

	// the query embeds identically to the stored chunk, so similarity is 1
	record, err := e.Answer(ctx, domain.Query{Text: text, SimilarityThreshold: -1})
	require.NoError(t, err)

	assert.False(t, record.Refusal)
	assert.NotEqual(t, domain.RefusalAnswer, record.AnswerText)
	require.Len(t, record.Citations, 1)
	assert.Equal(t, "Rotation", record.Citations[0].Heading)
	assert.InDelta(t, 1.0, record.Citations[0].SimilarityScore, 1e-9)
	require.Len(t, record.SimilarityScores, 1)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, record, records[0])
}

func TestAnswer_EmptyStoreRefuses(t *testing.T) {
	sink := chatlog.NewMemoryRecorder()
	e := newTestEngine(t, sink)

	query := domain.Query{Text: "anything at all", SimilarityThreshold: -1}
	record, err := e.Answer(context.Background(), query)
	require.NoError(t, err)

	assert.True(t, record.Refusal)
	assert.Equal(t, domain.RefusalAnswer, record.AnswerText)
	assert.NotNil(t, record.Citations)
	assert.Empty(t, record.Citations)
	assert.NotNil(t, record.SimilarityScores)
	assert.Empty(t, record.SimilarityScores)
	assert.Equal(t, query.Text, record.QueryText)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Refusal)
}

func TestAnswer_ThresholdRefusal(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := e.IngestBlocks(ctx, "v1",
		[]domain.ContentBlock{{Text: "Backup snapshots run nightly."}}, domain.Metadata{})
	require.NoError(t, err)

	record, err := e.Answer(ctx, domain.Query{Text: "completely different question", SimilarityThreshold: 0.99})
	require.NoError(t, err)
	assert.True(t, record.Refusal)
	assert.Equal(t, domain.RefusalAnswer, record.AnswerText)
}

func TestAnswer_EmptyQueryText(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.Answer(context.Background(), domain.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_ChatLogFailureDoesNotFailAnswer(t *testing.T) {
	e := newTestEngine(t, failingSink{})
	ctx := context.Background()

	text := "Log shipping uses the sidecar."
	_, err := e.IngestBlocks(ctx, "v1", []domain.ContentBlock{{Text: text}}, domain.Metadata{})
	require.NoError(t, err)

	record, err := e.Answer(ctx, domain.Query{Text: text, SimilarityThreshold: -1})
	require.NoError(t, err)
	assert.False(t, record.Refusal)
}

func TestSearch_FilterMismatchYieldsEmpty(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	text := "Queues drain before shutdown."
	_, err := e.IngestBlocks(ctx, "v1", []domain.ContentBlock{{Text: text}},
		domain.Metadata{Cluster: "messaging"})
	require.NoError(t, err)

	results, err := e.Search(ctx, domain.Query{
		Text:                text,
		SimilarityThreshold: -1,
		Filters:             domain.Filters{Cluster: "storage"},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
