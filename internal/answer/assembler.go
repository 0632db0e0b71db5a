package answer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"toolkitrag/internal/domain"
)

// Instruction restricts generation strictly to the assembled context. The
// generator is trusted to follow it; the engine does not verify that the
// produced text cites only assembled excerpts.
const Instruction = "Answer using ONLY the numbered excerpts provided in the context. " +
	"Cite the excerpts you rely on with bracketed reference markers like [1]. " +
	"If the context does not contain the information needed to answer, reply exactly: " +
	domain.RefusalAnswer

// Assembler builds the generation context from retrieved chunks, applies the
// refusal policy, and produces the answer record with citations.
type Assembler struct {
	generator       domain.Generator
	maxContextChars int
	snippetChars    int
}

// New creates an assembler. Out-of-range bounds fall back to 6000 context
// characters and 200 snippet characters.
func New(generator domain.Generator, maxContextChars, snippetChars int) *Assembler {
	if maxContextChars <= 0 {
		maxContextChars = 6000
	}
	if snippetChars <= 0 {
		snippetChars = 200
	}
	return &Assembler{
		generator:       generator,
		maxContextChars: maxContextChars,
		snippetChars:    snippetChars,
	}
}

// Assemble turns retrieval results into an answer record. An empty result
// sequence is the canonical refusal trigger regardless of why it is empty.
// Generation failures surface as GenerationError, never as refusal.
func (a *Assembler) Assemble(ctx context.Context, query domain.Query, results []domain.SearchResult) (domain.AnswerRecord, error) {
	if len(results) == 0 {
		return Refusal(query), nil
	}

	contextText, used := a.buildContext(results)

	generated, err := a.generator.Generate(ctx, Instruction, contextText, query.Text)
	if err != nil {
		return domain.AnswerRecord{}, err
	}

	citations := make([]domain.Citation, 0, len(used))
	scores := make([]float64, 0, len(used))
	for _, r := range used {
		citations = append(citations, domain.Citation{
			ChunkID:         r.ChunkID,
			Heading:         r.Heading,
			Snippet:         snippet(r.ChunkText, a.snippetChars),
			SimilarityScore: r.SimilarityScore,
			DocumentVersion: r.DocumentVersion,
			Metadata:        r.Metadata,
		})
		scores = append(scores, r.SimilarityScore)
	}

	return domain.AnswerRecord{
		QueryText:        query.Text,
		AnswerText:       generated,
		Citations:        citations,
		SimilarityScores: scores,
		FiltersApplied:   query.Filters,
		Refusal:          false,
	}, nil
}

// Refusal returns the exact answer shape for a refused query.
func Refusal(query domain.Query) domain.AnswerRecord {
	return domain.AnswerRecord{
		QueryText:        query.Text,
		AnswerText:       domain.RefusalAnswer,
		Citations:        []domain.Citation{},
		SimilarityScores: []float64{},
		FiltersApplied:   query.Filters,
		Refusal:          true,
	}
}

// buildContext concatenates numbered excerpts in descending-similarity
// order, truncating to the overall character budget by dropping whole
// trailing excerpts so citations stay consistent with the exact text the
// generator saw. The first excerpt is always included.
func (a *Assembler) buildContext(results []domain.SearchResult) (string, []domain.SearchResult) {
	var b strings.Builder
	var used []domain.SearchResult
	total := 0 // budget counts characters, not bytes
	for i, r := range results {
		excerpt := renderExcerpt(i+1, r)
		addition := utf8.RuneCountInString(excerpt)
		if total > 0 {
			addition += 2 // separator
		}
		if total > 0 && total+addition > a.maxContextChars {
			break
		}
		if total > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(excerpt)
		total += addition
		used = append(used, r)
	}
	return b.String(), used
}

func renderExcerpt(n int, r domain.SearchResult) string {
	if r.Heading != "" {
		return fmt.Sprintf("[%d] %s\n%s", n, r.Heading, r.ChunkText)
	}
	return fmt.Sprintf("[%d] %s", n, r.ChunkText)
}

// snippet returns a prefix of at most limit characters, cut on a rune
// boundary so multi-byte text stays valid.
func snippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
