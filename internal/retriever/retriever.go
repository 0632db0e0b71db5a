package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"

	"toolkitrag/internal/domain"
)

// Retriever ranks stored chunks against a query vector by cosine similarity.
// Ranking happens here rather than in the stores so ordering is identical
// and deterministic across every store implementation.
type Retriever struct {
	store domain.ChunkStore
}

// New creates a retriever over the given chunk store.
func New(store domain.ChunkStore) *Retriever {
	return &Retriever{store: store}
}

// Search returns up to topK results above threshold, matching all supplied
// filters, sorted by descending similarity with ties broken by ascending
// chunk index. An empty result is a normal outcome, not an error. topK must
// be positive; callers resolve configured defaults before calling.
func (r *Retriever) Search(ctx context.Context, vector []float64, topK int, threshold float64, filters domain.Filters) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}
	stored, err := r.store.EmbeddedChunks(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(stored))
	for _, sc := range stored {
		if !matches(sc.Chunk.Metadata, filters) {
			continue
		}
		score := cosineSimilarity(vector, sc.Vector)
		if score < threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkID:         sc.Chunk.ID,
			ChunkText:       sc.Chunk.Text,
			Heading:         sc.Chunk.Heading,
			SimilarityScore: score,
			ChunkIndex:      sc.Chunk.Index,
			DocumentVersion: sc.Chunk.DocumentVersion,
			Metadata:        sc.Chunk.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SimilarityScore != results[j].SimilarityScore {
			return results[i].SimilarityScore > results[j].SimilarityScore
		}
		if results[i].ChunkIndex != results[j].ChunkIndex {
			return results[i].ChunkIndex < results[j].ChunkIndex
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func matches(meta domain.Metadata, filters domain.Filters) bool {
	if filters.Cluster != "" && meta.Cluster != filters.Cluster {
		return false
	}
	if filters.ToolName != "" && meta.ToolName != filters.ToolName {
		return false
	}
	for _, want := range filters.Tags {
		found := false
		for _, tag := range meta.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// cosineSimilarity computes dot(a,b) / (|a| * |b|). Magnitudes are always
// computed; stored vectors are never assumed to be unit-normalized, even
// for providers that normalize today.
func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
