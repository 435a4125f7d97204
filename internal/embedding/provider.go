// Package embedding turns incident evidence text into fixed-length vectors.
// Providers must be referentially transparent: identical text in, identical
// vector out, across calls and process restarts. Clustering reproducibility
// depends on it.
package embedding

import (
	"context"
)

// Provider is a pure text -> vector function over batches
type Provider interface {
	// Embed converts each text into a fixed-length vector. The result
	// slice is index-aligned with the input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dims returns the vector length this provider produces
	Dims() int
}
