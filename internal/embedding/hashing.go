package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDims is the default vector length for the hashing provider
const DefaultDims = 256

// HashingProvider is a deterministic feature-hashing vectorizer. Tokens
// (unigrams plus adjacent bigrams) are hashed into a fixed number of
// buckets with a hash-derived sign, then L2-normalized so that cosine and
// euclidean distance agree up to a constant.
type HashingProvider struct {
	dims int
}

// NewHashingProvider creates a hashing provider with the given vector
// length. Non-positive dims falls back to DefaultDims.
func NewHashingProvider(dims int) *HashingProvider {
	if dims <= 0 {
		dims = DefaultDims
	}
	return &HashingProvider{dims: dims}
}

// Dims returns the vector length
func (p *HashingProvider) Dims() int {
	return p.dims
}

// Embed vectorizes each text. Texts with no tokens yield a zero vector;
// callers exclude empty evidence before reaching the provider.
func (p *HashingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.vectorize(text)
	}
	return out, nil
}

func (p *HashingProvider) vectorize(text string) []float32 {
	vec := make([]float32, p.dims)
	tokens := tokenize(text)

	for i, tok := range tokens {
		p.addFeature(vec, tok)
		if i+1 < len(tokens) {
			p.addFeature(vec, tok+" "+tokens[i+1])
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func (p *HashingProvider) addFeature(vec []float32, token string) {
	h := fnv.New32a()
	h.Write([]byte(token))
	sum := h.Sum32()

	idx := int(sum % uint32(p.dims))
	if sum&0x80000000 != 0 {
		vec[idx] -= 1
	} else {
		vec[idx] += 1
	}
}

// tokenize lowercases and splits on any non-alphanumeric rune. Placeholder
// tokens like <ip> survive as "ip".
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
