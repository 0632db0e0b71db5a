package stub

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	p := New(64)
	ctx := context.Background()

	first, err := p.Embed(ctx, "how do I rotate credentials")
	require.NoError(t, err)
	second, err := p.Embed(ctx, "how do I rotate credentials")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEmbed_DistinctInputsDiffer(t *testing.T) {
	p := New(64)
	ctx := context.Background()

	a, err := p.Embed(ctx, "alpha")
	require.NoError(t, err)
	b, err := p.Embed(ctx, "beta")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEmbed_UnitNorm(t *testing.T) {
	p := New(DefaultDimensions)

	vec, err := p.Embed(context.Background(), "some toolkit question")
	require.NoError(t, err)
	require.Len(t, vec, DefaultDimensions)

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestNew_DimensionFallback(t *testing.T) {
	p := New(0)
	assert.Equal(t, DefaultDimensions, p.Dimensions())

	p = New(32)
	assert.Equal(t, 32, p.Dimensions())
	vec, err := p.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, vec, 32)
}
