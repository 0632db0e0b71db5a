package generation

import (
	"context"
	"strings"
)

// StaticGenerator is the offline text-generation variant. It answers
// extractively: the first excerpt of the assembled context, trimmed to a
// sentence boundary. Useful for development and tests; it never fails.
type StaticGenerator struct {
	maxChars int
}

// NewStaticGenerator creates an extractive generator. maxChars bounds the
// returned excerpt; out-of-range values fall back to 500.
func NewStaticGenerator(maxChars int) *StaticGenerator {
	if maxChars <= 0 {
		maxChars = 500
	}
	return &StaticGenerator{maxChars: maxChars}
}

// Name returns the identifier of this generator.
func (g *StaticGenerator) Name() string { return "static" }

// Generate returns the leading portion of the context, cut at the last
// sentence end inside the budget when one exists. The budget counts
// characters and the cut lands on a rune boundary.
func (g *StaticGenerator) Generate(_ context.Context, _, contextText, _ string) (string, error) {
	text := strings.TrimSpace(contextText)
	runes := []rune(text)
	if len(runes) <= g.maxChars {
		return text, nil
	}
	cut := string(runes[:g.maxChars])
	if end := strings.LastIndex(cut, ". "); end > len(cut)/2 {
		return cut[:end+1], nil
	}
	return cut, nil
}
