// Package vectorstore persists chunk embeddings in Postgres via pgvector and
// serves cosine nearest-neighbour queries for the semantic retrieval path.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
)

type PgVectorStore struct {
	db *pgxpool.Pool
}

func NewPgVectorStore(db *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{db: db}
}

// UpdateChunkEmbeddings attaches vectors to already inserted chunk rows.
// ids and vectors are parallel slices.
func (s *PgVectorStore) UpdateChunkEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids/vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, id := range ids {
		_, err := tx.Exec(ctx,
			`UPDATE chunks SET embedding = $1 WHERE id = $2`,
			pgvector.NewVector(vectors[i]), id,
		)
		if err != nil {
			return fmt.Errorf("update embedding for chunk %d: %w", id, err)
		}
	}

	return tx.Commit(ctx)
}

// SimilaritySearch returns the chunks nearest to the query vector by cosine
// distance, scored as 1 - distance. Chunks without an embedding are skipped.
func (s *PgVectorStore) SimilaritySearch(ctx context.Context, query []float32, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = 10
	}

	embedding := pgvector.NewVector(query)

	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.document_id, d.title, d.document_type, c.page_number, c.chunk_text,
		        1 - (c.embedding <=> $1) AS score
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE c.embedding IS NOT NULL
		 ORDER BY c.embedding <=> $1
		 LIMIT $2`,
		embedding, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []search.Result
	for rows.Next() {
		var r search.Result
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.DocumentTitle, &r.DocumentType,
			&r.PageNumber, &r.ChunkText, &r.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
