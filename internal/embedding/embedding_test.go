package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/moolen/cascade/internal/models"
)

func TestHashingProviderIsReferentiallyTransparent(t *testing.T) {
	p := NewHashingProvider(128)
	ctx := context.Background()

	first, err := p.Embed(ctx, []string{"OOMKilled: memory limit exceeded"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := p.Embed(ctx, []string{"OOMKilled: memory limit exceeded"})
		if err != nil {
			t.Fatalf("Embed failed: %v", err)
		}
		for d := range first[0] {
			if first[0][d] != again[0][d] {
				t.Fatalf("vector differs at dim %d on call %d", d, i)
			}
		}
	}
}

func TestHashingProviderVectorsAreUnitLength(t *testing.T) {
	p := NewHashingProvider(64)
	vecs, err := p.Embed(context.Background(), []string{"connection refused to upstream"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("norm^2 = %v, want 1.0", norm)
	}
}

func TestHashingProviderSimilarTextsAreCloserThanUnrelated(t *testing.T) {
	p := NewHashingProvider(256)
	vecs, err := p.Embed(context.Background(), []string{
		"OOMKilled: container exceeded memory limit",
		"OOMKilled: container exceeded memory limit again",
		"certificate has expired for domain example",
	})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	similar := euclidean(vecs[0], vecs[1])
	unrelated := euclidean(vecs[0], vecs[2])
	if similar >= unrelated {
		t.Errorf("similar distance %v should be below unrelated distance %v", similar, unrelated)
	}
}

func TestHashingProviderEmptyTextYieldsZeroVector(t *testing.T) {
	p := NewHashingProvider(32)
	vecs, err := p.Embed(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatal("empty text should yield a zero vector")
		}
	}
}

func TestHashingProviderHonorsCancellation(t *testing.T) {
	p := NewHashingProvider(32)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Embed(ctx, []string{"a"}); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestCachedProviderReturnsSameVectors(t *testing.T) {
	inner := NewHashingProvider(64)
	cached, err := NewCachedProvider(inner, 16)
	if err != nil {
		t.Fatalf("NewCachedProvider failed: %v", err)
	}
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if cached.Len() != 2 {
		t.Errorf("cache len = %d, want 2", cached.Len())
	}

	second, err := cached.Embed(ctx, []string{"beta", "alpha", "gamma"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if euclidean(first[0], second[1]) != 0 {
		t.Error("cached vector for alpha differs")
	}
	if euclidean(first[1], second[0]) != 0 {
		t.Error("cached vector for beta differs")
	}
	if cached.Len() != 3 {
		t.Errorf("cache len = %d, want 3", cached.Len())
	}
}

func TestIncidentTextBoundedConcatenation(t *testing.T) {
	inc := &models.Incident{
		IncidentType: "oomkilled",
		Events: []models.Event{
			{Text: "first"}, {Text: "second"}, {Text: ""}, {Text: "third"},
		},
	}

	text := IncidentText(inc, 2, 0)
	if text != "oomkilled\nfirst\nsecond" {
		t.Errorf("text = %q", text)
	}

	truncated := IncidentText(inc, 5, 12)
	if len(truncated) != 12 {
		t.Errorf("len = %d, want 12", len(truncated))
	}
}

func TestIncidentTextEmptyEvidence(t *testing.T) {
	inc := &models.Incident{Events: []models.Event{{Text: ""}}}
	if got := IncidentText(inc, 0, 0); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
