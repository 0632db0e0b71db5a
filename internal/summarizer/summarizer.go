package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"toolkitrag/internal/domain"
)

// Summarizer produces a short extract of an ingested document for the
// ingest report: sentences ranked by normalized token frequency, returned in
// original order.
type Summarizer struct {
	maxSentences int
	tokenRe      *regexp.Regexp
	sentenceRe   *regexp.Regexp
	stopwords    map[string]struct{}
}

// New creates a summarizer emitting at most maxSentences sentences.
func New(maxSentences int) *Summarizer {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Summarizer{
		maxSentences: maxSentences,
		tokenRe:      regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentenceRe:   regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:    stopwords(),
	}
}

// SummarizeBlocks summarizes the text of an ordered block sequence.
func (s *Summarizer) SummarizeBlocks(blocks []domain.ContentBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		if strings.TrimSpace(blk.Text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(blk.Text))
	}
	return s.summarize(b.String())
}

func (s *Summarizer) summarize(text string) string {
	sentences := s.sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		total := 0.0
		for _, tok := range toks {
			total += freq[tok]
		}
		if n := float64(len(toks)); n > 0 {
			total /= math.Sqrt(n)
		}
		ranked[i] = scored{i, total}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	keep := s.maxSentences
	if keep > len(ranked) {
		keep = len(ranked)
	}
	selected := make([]int, keep)
	for i := 0; i < keep; i++ {
		selected[i] = ranked[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, keep)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

func (s *Summarizer) tokens(text string) []string {
	raw := s.tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "for", "to", "of", "in",
		"on", "at", "by", "with", "as", "is", "are", "was", "were", "be",
		"been", "it", "this", "that", "these", "those", "from", "into",
		"about", "than", "so", "such", "can", "will", "just", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
