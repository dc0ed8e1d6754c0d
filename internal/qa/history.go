package qa

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
)

// History is the append-only record of corpus-wide questions and answers.
type History struct {
	db *pgxpool.Pool
}

func NewHistory(db *pgxpool.Pool) *History {
	return &History{db: db}
}

func (h *History) Append(ctx context.Context, question, answer string, citations []models.Citation, documentIDs []int64) error {
	if citations == nil {
		citations = []models.Citation{}
	}
	if documentIDs == nil {
		documentIDs = []int64{}
	}
	_, err := h.db.Exec(ctx,
		`INSERT INTO qa_history (question, answer, citations, document_ids) VALUES ($1, $2, $3, $4)`,
		question, answer, citations, documentIDs,
	)
	if err != nil {
		return fmt.Errorf("append qa history: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]models.QAHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(ctx,
		`SELECT id, question, answer, citations, document_ids, created_at
		 FROM qa_history ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list qa history: %w", err)
	}
	defer rows.Close()

	var entries []models.QAHistory
	for rows.Next() {
		var e models.QAHistory
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Citations, &e.DocumentIDs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan qa history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
