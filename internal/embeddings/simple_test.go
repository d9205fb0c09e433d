package embeddings

import (
	"context"
	"math"
	"reflect"
	"testing"

	pgvector "github.com/pgvector/pgvector-go"
)

func TestSimpleProvider_Dimensions(t *testing.T) {
	p := NewSimpleProvider()
	vec, err := p.Embed(context.Background(), "조용한 카페")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec.Slice()) != Dimensions {
		t.Errorf("expected %d dimensions, got %d", Dimensions, len(vec.Slice()))
	}
}

func TestSimpleProvider_Deterministic(t *testing.T) {
	p := NewSimpleProvider()
	a, _ := p.Embed(context.Background(), "친구랑 조용한 카페")
	b, _ := p.Embed(context.Background(), "친구랑 조용한 카페")
	if !reflect.DeepEqual(a.Slice(), b.Slice()) {
		t.Error("identical text must yield identical vectors")
	}
}

func TestSimpleProvider_Normalized(t *testing.T) {
	p := NewSimpleProvider()
	vec, _ := p.Embed(context.Background(), "한식 맛집에서 회식")

	var norm float64
	for _, v := range vec.Slice() {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-5 {
		t.Errorf("expected unit norm, got %v", math.Sqrt(norm))
	}
}

func TestSimpleProvider_SharedTokensCloserThanDisjoint(t *testing.T) {
	p := NewSimpleProvider()
	base, _ := p.Embed(context.Background(), "조용한 카페")
	overlap, _ := p.Embed(context.Background(), "조용한 분위기")
	disjoint, _ := p.Embed(context.Background(), "시끌벅적한 회식")

	if dot(base, overlap) <= dot(base, disjoint) {
		t.Errorf("overlapping text should be more similar: overlap=%v disjoint=%v",
			dot(base, overlap), dot(base, disjoint))
	}
}

func TestSimpleProvider_EmptyTextIsZeroVector(t *testing.T) {
	p := NewSimpleProvider()
	vec, err := p.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range vec.Slice() {
		if v != 0 {
			t.Fatalf("expected zero vector, found %v at index %d", v, i)
		}
	}
}

func TestTokenize_HandlesHangulAndPunctuation(t *testing.T) {
	got := tokenize("친구랑, 조용한 카페!")
	want := []string{"친구랑", "조용한", "카페"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %v, want %v", got, want)
	}
}

func dot(a, b pgvector.Vector) float64 {
	as, bs := a.Slice(), b.Slice()
	var sum float64
	for i := range as {
		sum += float64(as[i]) * float64(bs[i])
	}
	return sum
}
