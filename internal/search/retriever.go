package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Result is one retrieved chunk with enough document context to label it in
// an answer prompt.
type Result struct {
	ChunkID       int64   `json:"chunkId"`
	DocumentID    int64   `json:"documentId"`
	DocumentTitle string  `json:"documentTitle"`
	DocumentType  *string `json:"documentType,omitempty"`
	PageNumber    *int    `json:"pageNumber,omitempty"`
	ChunkText     string  `json:"chunkText"`
	Score         float64 `json:"score"`
}

// ChunkStore resolves full-text hits to chunk rows and serves the substring
// fallback directly from the database, independent of the bleve index.
type ChunkStore interface {
	ChunksByIDs(ctx context.Context, ids []int64) ([]Result, error)
	SubstringSearch(ctx context.Context, query string, limit int) ([]Result, error)
}

// Embedder produces a query embedding for the semantic strategy.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher ranks chunks by embedding similarity.
type VectorSearcher interface {
	SimilaritySearch(ctx context.Context, queryVec []float32, limit int) ([]Result, error)
}

// FullTextSearcher is the ranked lexical strategy, implemented by
// *PostgresIndex and *Index.
type FullTextSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// Retriever is the retrieval engine: ranked full-text search first, substring
// fallback on zero hits, and an optional semantic strategy merged via
// reciprocal rank fusion. Semantic search is additive, never a replacement
// for the lexical contract.
type Retriever struct {
	index    FullTextSearcher
	store    ChunkStore
	embedder Embedder
	vectors  VectorSearcher
}

func NewRetriever(index FullTextSearcher, store ChunkStore) *Retriever {
	return &Retriever{index: index, store: store}
}

// WithSemantic enables the embedding-based strategy.
func (r *Retriever) WithSemantic(embedder Embedder, vectors VectorSearcher) *Retriever {
	r.embedder = embedder
	r.vectors = vectors
	return r
}

// Retrieve returns up to limit ranked candidate chunks for query.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	lexical, err := r.lexical(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if r.embedder == nil || r.vectors == nil {
		return lexical, nil
	}

	semantic := r.semantic(ctx, query, limit)
	if len(semantic) == 0 {
		return lexical, nil
	}
	return FuseRanked(lexical, semantic, limit), nil
}

func (r *Retriever) lexical(ctx context.Context, query string, limit int) ([]Result, error) {
	hits, err := r.index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}

	if len(hits) == 0 {
		// Short queries, stopword-only queries, and tokens the analyzer
		// drops (ticker symbols, ids) produce zero full-text hits. The
		// substring scan trades precision for guaranteed recall there.
		results, err := r.store.SubstringSearch(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("substring fallback: %w", err)
		}
		return results, nil
	}

	ids := make([]int64, len(hits))
	scores := make(map[int64]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
		scores[h.ChunkID] = h.Score
	}

	results, err := r.store.ChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve hits: %w", err)
	}
	for i := range results {
		results[i].Score = scores[results[i].ChunkID]
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return results, nil
}

// semantic is best-effort: embedding or vector search failures degrade to
// lexical-only results.
func (r *Retriever) semantic(ctx context.Context, query string, limit int) []Result {
	vec, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed, lexical only", "error", err)
		return nil
	}
	results, err := r.vectors.SimilaritySearch(ctx, vec, limit)
	if err != nil {
		slog.Warn("vector search failed, lexical only", "error", err)
		return nil
	}
	return results
}

// rrfK dampens the influence of rank position in reciprocal rank fusion; 60
// is the value from the original RRF paper.
const rrfK = 60

// FuseRanked merges two ranked lists with reciprocal rank fusion. A chunk
// appearing in both lists outranks one appearing in either alone.
func FuseRanked(a, b []Result, limit int) []Result {
	type fused struct {
		result Result
		score  float64
	}
	byID := make(map[int64]*fused)
	order := make([]int64, 0, len(a)+len(b))

	accumulate := func(list []Result) {
		for rank, res := range list {
			f, ok := byID[res.ChunkID]
			if !ok {
				f = &fused{result: res}
				byID[res.ChunkID] = f
				order = append(order, res.ChunkID)
			}
			f.score += 1.0 / float64(rrfK+rank+1)
		}
	}
	accumulate(a)
	accumulate(b)

	merged := make([]Result, 0, len(order))
	for _, id := range order {
		f := byID[id]
		f.result.Score = f.score
		merged = append(merged, f.result)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
