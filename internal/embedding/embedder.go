package embedding

import "context"

// Provider converts free text into a fixed-length numeric vector. The
// dimensionality is fixed per provider configuration and never changes after
// construction.
type Provider interface {
	Name() string
	Dimensions() int
	Embed(ctx context.Context, text string) ([]float64, error)
}
