// Package search implements lexical retrieval over document chunks: a ranked
// full-text backend (Postgres tsvector by default, an in-process bleve index
// as an alternative), with a case-insensitive substring fallback for queries
// the analyzer drops, and an optional semantic strategy fused in when an
// embedder is configured.
package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
)

// Indexer maintains the full-text index as chunks are created and deleted.
type Indexer interface {
	IndexChunks(chunks []models.Chunk) error
	DeleteChunks(chunkIDs []int64) error
}

// Index wraps a file-based bleve index over chunk text, keyed by chunk id.
// bleve holds an exclusive lock on its path, so this backend is only valid
// when a single process owns both indexing and search.
type Index struct {
	index bleve.Index
}

type indexedChunk struct {
	DocumentID int64
	Text       string
}

// Hit is one ranked full-text match.
type Hit struct {
	ChunkID int64
	Score   float64
}

// OpenIndex opens or creates the bleve index at path.
func OpenIndex(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = "en" // stemming for financial prose

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Text", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

func (i *Index) Close() error {
	return i.index.Close()
}

// IndexChunks adds chunk rows to the full-text index in one batch.
func (i *Index) IndexChunks(chunks []models.Chunk) error {
	batch := i.index.NewBatch()
	for _, c := range chunks {
		err := batch.Index(strconv.FormatInt(c.ID, 10), indexedChunk{
			DocumentID: c.DocumentID,
			Text:       c.ChunkText,
		})
		if err != nil {
			return fmt.Errorf("batch index chunk %d: %w", c.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// DeleteChunks removes chunk entries, used when a document is deleted.
func (i *Index) DeleteChunks(chunkIDs []int64) error {
	batch := i.index.NewBatch()
	for _, id := range chunkIDs {
		batch.Delete(strconv.FormatInt(id, 10))
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// Search runs an analyzed match query over chunk text and returns ranked
// hits. Queries with no analyzable terms simply produce zero hits; the caller
// is expected to fall back to a substring scan in that case.
func (i *Index) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	query := bleve.NewMatchQuery(queryStr)
	query.SetField("Text")

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	results, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ChunkID: id, Score: hit.Score})
	}
	return hits, nil
}
