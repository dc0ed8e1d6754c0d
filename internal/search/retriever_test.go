package search

import (
	"context"
	"strings"
	"testing"
)

type fakeIndex struct {
	hits []Hit
	err  error
}

func (f *fakeIndex) Search(_ context.Context, query string, limit int) ([]Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

type fakeStore struct {
	chunks          []Result
	substringCalled bool
}

func (f *fakeStore) ChunksByIDs(_ context.Context, ids []int64) ([]Result, error) {
	var out []Result
	for _, id := range ids {
		for _, c := range f.chunks {
			if c.ChunkID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) SubstringSearch(_ context.Context, query string, limit int) ([]Result, error) {
	f.substringCalled = true
	var out []Result
	for _, c := range f.chunks {
		if strings.Contains(strings.ToLower(c.ChunkText), strings.ToLower(query)) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func TestRetrieveRankedFullText(t *testing.T) {
	store := &fakeStore{chunks: []Result{
		{ChunkID: 1, ChunkText: "revenue grew strongly"},
		{ChunkID: 2, ChunkText: "margin pressure continued"},
	}}
	idx := &fakeIndex{hits: []Hit{{ChunkID: 2, Score: 1.8}, {ChunkID: 1, Score: 0.4}}}

	r := NewRetriever(idx, store)
	results, err := r.Retrieve(context.Background(), "margins", 10)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkID != 2 {
		t.Fatalf("expected highest-score chunk first, got %d", results[0].ChunkID)
	}
	if store.substringCalled {
		t.Fatalf("substring fallback must not run when full-text search has hits")
	}
}

func TestRetrieveSubstringFallbackOnZeroHits(t *testing.T) {
	store := &fakeStore{chunks: []Result{
		{ChunkID: 1, ChunkText: "ticker XYZ123 announced results"},
		{ChunkID: 2, ChunkText: "nothing relevant"},
	}}
	idx := &fakeIndex{hits: nil}

	r := NewRetriever(idx, store)
	results, err := r.Retrieve(context.Background(), "xyz123", 10)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !store.substringCalled {
		t.Fatalf("expected substring fallback when full-text returns zero hits")
	}
	if len(results) != 1 || results[0].ChunkID != 1 {
		t.Fatalf("expected exactly the matching chunk, got %+v", results)
	}
}

func TestRetrieveFallbackReturnsEmptyWhenNoSubstringMatch(t *testing.T) {
	store := &fakeStore{chunks: []Result{{ChunkID: 1, ChunkText: "annual report"}}}
	r := NewRetriever(&fakeIndex{}, store)

	results, err := r.Retrieve(context.Background(), "zzzzz", 10)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestFuseRankedPrefersChunksInBothLists(t *testing.T) {
	lexical := []Result{{ChunkID: 1}, {ChunkID: 2}, {ChunkID: 3}}
	semantic := []Result{{ChunkID: 3}, {ChunkID: 4}}

	merged := FuseRanked(lexical, semantic, 10)
	if len(merged) != 4 {
		t.Fatalf("expected 4 merged results, got %d", len(merged))
	}
	if merged[0].ChunkID != 3 {
		t.Fatalf("chunk in both lists should rank first, got %d", merged[0].ChunkID)
	}
}

func TestFuseRankedHonorsLimit(t *testing.T) {
	var lexical, semantic []Result
	for i := int64(1); i <= 8; i++ {
		lexical = append(lexical, Result{ChunkID: i})
	}
	merged := FuseRanked(lexical, semantic, 3)
	if len(merged) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(merged))
	}
}
