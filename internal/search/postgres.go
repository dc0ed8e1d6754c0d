package search

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
)

// Backend is a complete lexical backend: the indexing side used by the
// ingestion pipeline and the query side used by the retriever. Implemented
// by *PostgresIndex and *Index.
type Backend interface {
	Indexer
	FullTextSearcher
	Close() error
}

// OpenBackend selects the lexical backend named by SEARCH_BACKEND. Unknown
// names are rejected by config validation before this runs.
func OpenBackend(name string, db *pgxpool.Pool, indexPath string) (Backend, error) {
	if name == "bleve" {
		return OpenIndex(indexPath)
	}
	return NewPostgresIndex(db), nil
}

// PostgresIndex serves ranked full-text search from the chunks table's
// generated tsvector column. Both the API and the worker share it through
// the connection pool, so neither process holds an index file lock and a
// chunk committed by the worker is searchable by the API immediately.
type PostgresIndex struct {
	db *pgxpool.Pool
}

func NewPostgresIndex(db *pgxpool.Pool) *PostgresIndex {
	return &PostgresIndex{db: db}
}

// Close is a no-op. The connection pool is owned by the caller.
func (p *PostgresIndex) Close() error {
	return nil
}

// IndexChunks is a no-op: the chunk_tsv column is generated from chunk_text,
// so chunks are indexed by the finalize transaction itself.
func (p *PostgresIndex) IndexChunks(chunks []models.Chunk) error {
	return nil
}

// DeleteChunks is a no-op: chunk rows cascade-delete with their document and
// take their tsvector with them.
func (p *PostgresIndex) DeleteChunks(chunkIDs []int64) error {
	return nil
}

// Search ranks chunks with ts_rank against a plain-text query. Queries whose
// terms are all stopwords (or otherwise unanalyzable) produce an empty
// tsquery that matches nothing, which triggers the substring fallback.
func (p *PostgresIndex) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, ts_rank(chunk_tsv, q)::float8
		 FROM chunks, plainto_tsquery('english', $1) q
		 WHERE chunk_tsv @@ q
		 ORDER BY 2 DESC, id
		 LIMIT $2`,
		queryStr, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text query: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChunkID, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
