package embedding

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the embedding cache entry count
const DefaultCacheSize = 4096

// CachedProvider memoizes a provider behind an LRU cache keyed by the
// exact input text. Safe because providers are pure functions.
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// NewCachedProvider wraps a provider with an LRU cache of the given size.
// Non-positive size falls back to DefaultCacheSize.
func NewCachedProvider(inner Provider, size int) (*CachedProvider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

// Dims returns the wrapped provider's vector length
func (c *CachedProvider) Dims() int {
	return c.inner.Dims()
}

// Embed serves hits from the cache and delegates misses to the wrapped
// provider in a single batch. Returned vectors are shared and must be
// treated as read-only.
func (c *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if vec, ok := c.cache.Get(text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		c.cache.Add(missTexts[j], vecs[j])
	}
	return out, nil
}

// Len returns the number of cached entries
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}
