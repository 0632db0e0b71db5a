package stub

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// DefaultDimensions matches the width of the production embedding model so
// stored vectors stay interchangeable across provider swaps in tests.
const DefaultDimensions = 1536

// Provider is a deterministic offline embedding provider. It derives the
// vector from a SHA-256 hash of the input text, so identical text always
// yields an identical vector and the output needs no network access. The
// vectors carry no semantic meaning and exist for development and testing.
type Provider struct {
	dimensions int
}

// New creates a stub provider with the given dimensionality, falling back to
// DefaultDimensions when out of range.
func New(dimensions int) *Provider {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Provider{dimensions: dimensions}
}

// Name returns the identifier of this provider.
func (p *Provider) Name() string { return "stub" }

// Dimensions returns the width of produced vectors.
func (p *Provider) Dimensions() int { return p.dimensions }

// Embed returns a unit-normalized pseudo-embedding derived from the text
// hash. It never fails for well-formed text.
func (p *Provider) Embed(_ context.Context, text string) ([]float64, error) {
	seed := sha256.Sum256([]byte(text))

	vec := make([]float64, p.dimensions)
	var counter [8]byte
	norm := 0.0
	for i := 0; i < p.dimensions; i++ {
		binary.LittleEndian.PutUint64(counter[:], uint64(i))
		h := sha256.Sum256(append(seed[:], counter[:]...))
		// First 8 hash bytes to a float in [-1, 1).
		u := binary.LittleEndian.Uint64(h[:8])
		v := (float64(u)/float64(math.MaxUint64))*2 - 1
		vec[i] = v
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
