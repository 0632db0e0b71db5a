package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolkitrag/internal/domain"
	"toolkitrag/internal/store/memory"
)

func seed(t *testing.T, st *memory.Store, chunk domain.Chunk, vector []float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Insert(ctx, chunk))
	require.NoError(t, st.AttachEmbedding(ctx, chunk.ID, vector))
}

func TestSearch_RanksByDescendingSimilarity(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, domain.Chunk{ID: "low", DocumentID: "d1", Text: "low", Index: 0}, []float64{0.6, 0.8, 0})
	seed(t, st, domain.Chunk{ID: "high", DocumentID: "d1", Text: "high", Index: 1}, []float64{1, 0, 0})
	seed(t, st, domain.Chunk{ID: "mid", DocumentID: "d1", Text: "mid", Index: 2}, []float64{0.8, 0.6, 0})

	r := New(st)
	results, err := r.Search(context.Background(), []float64{1, 0, 0}, 10, 0, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "high", results[0].ChunkID)
	assert.Equal(t, "mid", results[1].ChunkID)
	assert.Equal(t, "low", results[2].ChunkID)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-9)
	assert.InDelta(t, 0.8, results[1].SimilarityScore, 1e-9)
	assert.InDelta(t, 0.6, results[2].SimilarityScore, 1e-9)
}

func TestSearch_TieBreaksOnChunkIndex(t *testing.T) {
	st := memory.NewStore()
	// identical vectors, inserted with the higher index first
	seed(t, st, domain.Chunk{ID: "later", DocumentID: "d1", Text: "later", Index: 5}, []float64{0.8, 0.6, 0})
	seed(t, st, domain.Chunk{ID: "earlier", DocumentID: "d1", Text: "earlier", Index: 3}, []float64{0.8, 0.6, 0})

	r := New(st)
	results, err := r.Search(context.Background(), []float64{1, 0, 0}, 10, 0, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 3, results[0].ChunkIndex)
	assert.Equal(t, 5, results[1].ChunkIndex)
	assert.Equal(t, results[0].SimilarityScore, results[1].SimilarityScore)
}

func TestSearch_ThresholdExcludes(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, domain.Chunk{ID: "in", DocumentID: "d1", Text: "in", Index: 0}, []float64{1, 0, 0})
	seed(t, st, domain.Chunk{ID: "out", DocumentID: "d1", Text: "out", Index: 1}, []float64{0.6, 0.8, 0})

	r := New(st)
	results, err := r.Search(context.Background(), []float64{1, 0, 0}, 10, 0.7, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "in", results[0].ChunkID)
}

func TestSearch_TopKTruncates(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, domain.Chunk{ID: "a", DocumentID: "d1", Text: "a", Index: 0}, []float64{1, 0, 0})
	seed(t, st, domain.Chunk{ID: "b", DocumentID: "d1", Text: "b", Index: 1}, []float64{0.9, 0.1, 0})
	seed(t, st, domain.Chunk{ID: "c", DocumentID: "d1", Text: "c", Index: 2}, []float64{0.8, 0.2, 0})

	r := New(st)
	results, err := r.Search(context.Background(), []float64{1, 0, 0}, 2, 0, domain.Filters{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "b", results[1].ChunkID)
}

func TestSearch_FiltersNarrowCandidates(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, domain.Chunk{
		ID: "obs", DocumentID: "d1", Text: "obs", Index: 0,
		Metadata: domain.Metadata{Cluster: "observability", ToolName: "tracer", Tags: []string{"setup", "http"}},
	}, []float64{1, 0, 0})
	seed(t, st, domain.Chunk{
		ID: "db", DocumentID: "d2", Text: "db", Index: 0,
		Metadata: domain.Metadata{Cluster: "storage", ToolName: "migrator", Tags: []string{"setup"}},
	}, []float64{1, 0, 0})

	r := New(st)
	ctx := context.Background()
	query := []float64{1, 0, 0}

	results, err := r.Search(ctx, query, 10, 0, domain.Filters{Cluster: "observability"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "obs", results[0].ChunkID)

	results, err = r.Search(ctx, query, 10, 0, domain.Filters{ToolName: "migrator"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "db", results[0].ChunkID)

	// all requested tags must be present
	results, err = r.Search(ctx, query, 10, 0, domain.Filters{Tags: []string{"setup", "http"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "obs", results[0].ChunkID)

	results, err = r.Search(ctx, query, 10, 0, domain.Filters{Cluster: "networking"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_NonPositiveTopK(t *testing.T) {
	r := New(memory.NewStore())

	_, err := r.Search(context.Background(), []float64{1, 0, 0}, 0, 0.7, domain.Filters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Search(context.Background(), []float64{1, 0, 0}, -1, 0.7, domain.Filters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_EmptyStore(t *testing.T) {
	r := New(memory.NewStore())
	results, err := r.Search(context.Background(), []float64{1, 0, 0}, 5, 0.7, domain.Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0, 0}, []float64{1, 0, 0}))
	assert.Equal(t, 0.0, cosineSimilarity([]float64{1, 0, 0}, []float64{0, 0, 0}))
}

func TestCosineSimilarity_NotAssumingNormalization(t *testing.T) {
	// same direction, different magnitudes, still similarity 1
	got := cosineSimilarity([]float64{2, 0, 0}, []float64{5, 0, 0})
	assert.InDelta(t, 1.0, got, 1e-9)
}
