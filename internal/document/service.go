// Package document is the record store for documents, pages and chunks, plus
// the blob-store handoff on upload and delete.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/storage"
)

// ErrNotFound is returned for lookups of unknown document ids.
var ErrNotFound = errors.New("document not found")

type Service struct {
	db    *pgxpool.Pool
	store storage.Storage
}

func NewService(db *pgxpool.Pool, store storage.Storage) *Service {
	return &Service{db: db, store: store}
}

const documentColumns = `id, title, original_filename, file_path, file_size_bytes, file_type,
	upload_date, processed_date, processing_status, error_message, document_type,
	full_text, page_count, ai_summary, key_topics, sentiment`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Title, &d.OriginalFilename, &d.FilePath, &d.FileSizeBytes,
		&d.FileType, &d.UploadDate, &d.ProcessedDate, &d.ProcessingStatus, &d.ErrorMessage,
		&d.DocumentType, &d.FullText, &d.PageCount, &d.AISummary, &d.KeyTopics, &d.Sentiment)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type UploadRequest struct {
	Filename string
	FileType string
	FileSize int64
	Data     io.Reader
}

// Upload stores the raw bytes durably, then inserts the metadata row as
// pending. The caller enqueues background processing after this returns.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	title := strings.TrimSuffix(req.Filename, path.Ext(req.Filename))
	if title == "" {
		title = req.Filename
	}
	key := fmt.Sprintf("%s/%s", uuid.New(), sanitizeKey(req.Filename))

	if err := s.store.Put(ctx, key, req.Data, req.FileSize, req.FileType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO documents (title, original_filename, file_path, file_size_bytes, file_type, processing_status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+documentColumns,
		title, req.Filename, key, req.FileSize, req.FileType, models.StatusPending,
	)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	row := s.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

type ListFilters struct {
	Type   string
	Status string
	Search string
}

func (s *Service) List(ctx context.Context, f ListFilters) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var conds []string
	var args []any
	if f.Type != "" && f.Type != "all" {
		args = append(args, f.Type)
		conds = append(conds, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if f.Status != "" && f.Status != "all" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("processing_status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR original_filename ILIKE $%d)", len(args), len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY upload_date DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete removes the blob and the row; pages and chunks cascade. It returns
// the ids of the deleted chunks so the caller can purge the search index.
func (s *Service) Delete(ctx context.Context, id int64) ([]int64, error) {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	chunkIDs, err := s.chunkIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.FilePath != "" {
		// Blob cleanup is best-effort; an orphaned object is preferable to a
		// document row that cannot be deleted.
		_ = s.store.Delete(ctx, doc.FilePath)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	return chunkIDs, nil
}

// Download opens the stored original file for streaming to a client.
func (s *Service) Download(ctx context.Context, id int64) (*models.Document, io.ReadCloser, error) {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Get(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open blob: %w", err)
	}
	return doc, rc, nil
}

type Stats struct {
	TotalDocuments      int               `json:"totalDocuments"`
	ProcessingDocuments int               `json:"processingDocuments"`
	CompletedDocuments  int               `json:"completedDocuments"`
	FailedDocuments     int               `json:"failedDocuments"`
	RecentDocuments     []models.Document `json:"recentDocuments"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE processing_status = 'processing'),
		       count(*) FILTER (WHERE processing_status = 'completed'),
		       count(*) FILTER (WHERE processing_status = 'failed')
		FROM documents`,
	).Scan(&st.TotalDocuments, &st.ProcessingDocuments, &st.CompletedDocuments, &st.FailedDocuments)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY upload_date DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recent document: %w", err)
		}
		st.RecentDocuments = append(st.RecentDocuments, *doc)
	}
	return &st, rows.Err()
}

// ClaimProcessing moves a pending document to processing. It reports false
// when the document is not pending, which both enforces the one-way status
// order and guards against two runs racing on the same id.
func (s *Service) ClaimProcessing(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET processing_status = $1 WHERE id = $2 AND processing_status = $3`,
		models.StatusProcessing, id, models.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("claim document: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed records a terminal failure with the first error's message. A
// document already in a terminal state is left untouched.
func (s *Service) MarkFailed(ctx context.Context, id int64, message string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE documents SET processing_status = $1, error_message = $2
		 WHERE id = $3 AND processing_status IN ($4, $5)`,
		models.StatusFailed, message, id, models.StatusPending, models.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

type PageInput struct {
	Number int
	Text   string
}

type ChunkInput struct {
	PageNumber *int
	Text       string
	Index      int
	TokenCount int
}

type FinalizeInput struct {
	Pages        []PageInput
	Chunks       []ChunkInput
	FullText     string
	PageCount    int
	DocumentType string
}

// Finalize writes all processing artifacts and the completed status in one
// transaction, so a failure never leaves orphaned page or chunk rows behind.
// It returns the inserted chunk rows for search indexing.
func (s *Service) Finalize(ctx context.Context, id int64, in FinalizeInput) ([]models.Chunk, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range in.Pages {
		_, err := tx.Exec(ctx,
			`INSERT INTO document_pages (document_id, page_number, page_text) VALUES ($1, $2, $3)`,
			id, p.Number, p.Text,
		)
		if err != nil {
			return nil, fmt.Errorf("insert page %d: %w", p.Number, err)
		}
	}

	chunks := make([]models.Chunk, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		var chunk models.Chunk
		err := tx.QueryRow(ctx,
			`INSERT INTO chunks (document_id, page_number, chunk_text, chunk_index, token_count)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, document_id, page_number, chunk_text, chunk_index, token_count, created_at`,
			id, c.PageNumber, c.Text, c.Index, c.TokenCount,
		).Scan(&chunk.ID, &chunk.DocumentID, &chunk.PageNumber, &chunk.ChunkText,
			&chunk.ChunkIndex, &chunk.TokenCount, &chunk.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
		chunks = append(chunks, chunk)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE documents
		 SET processing_status = $1, processed_date = now(), full_text = $2, page_count = $3, document_type = $4
		 WHERE id = $5 AND processing_status = $6`,
		models.StatusCompleted, in.FullText, in.PageCount, in.DocumentType, id, models.StatusProcessing,
	)
	if err != nil {
		return nil, fmt.Errorf("complete document: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, fmt.Errorf("document %d is not processing, refusing to complete", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit finalize: %w", err)
	}
	return chunks, nil
}

// UpdateInsights persists the on-demand summary artifacts onto the document.
func (s *Service) UpdateInsights(ctx context.Context, id int64, summary string, keyTopics []string, sentiment string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE documents SET ai_summary = $1, key_topics = $2, sentiment = $3 WHERE id = $4`,
		summary, keyTopics, sentiment, id,
	)
	if err != nil {
		return fmt.Errorf("update insights: %w", err)
	}
	return nil
}

func (s *Service) GetPages(ctx context.Context, documentID int64) ([]models.DocumentPage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, document_id, page_number, COALESCE(page_text, '')
		 FROM document_pages WHERE document_id = $1 ORDER BY page_number`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("get pages: %w", err)
	}
	defer rows.Close()

	var pages []models.DocumentPage
	for rows.Next() {
		var p models.DocumentPage
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.PageNumber, &p.PageText); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *Service) GetPage(ctx context.Context, documentID int64, pageNumber int) (*models.DocumentPage, error) {
	var p models.DocumentPage
	err := s.db.QueryRow(ctx,
		`SELECT id, document_id, page_number, COALESCE(page_text, '')
		 FROM document_pages WHERE document_id = $1 AND page_number = $2`,
		documentID, pageNumber,
	).Scan(&p.ID, &p.DocumentID, &p.PageNumber, &p.PageText)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return &p, nil
}

func (s *Service) chunkIDs(ctx context.Context, documentID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return nil, fmt.Errorf("chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const chunkResultQuery = `
	SELECT c.id, c.document_id, d.title, d.document_type, c.page_number, c.chunk_text
	FROM chunks c
	JOIN documents d ON d.id = c.document_id`

func scanChunkResults(rows pgx.Rows) ([]search.Result, error) {
	defer rows.Close()
	var results []search.Result
	for rows.Next() {
		var r search.Result
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.DocumentTitle, &r.DocumentType,
			&r.PageNumber, &r.ChunkText); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ChunksByIDs resolves full-text hits to chunk rows with document context.
func (s *Service) ChunksByIDs(ctx context.Context, ids []int64) ([]search.Result, error) {
	rows, err := s.db.Query(ctx, chunkResultQuery+` WHERE c.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("chunks by ids: %w", err)
	}
	return scanChunkResults(rows)
}

// SubstringSearch is the retrieval fallback: a case-insensitive substring
// match over chunk text, unranked, in insertion order. The query is matched
// literally, so `%` and `_` in it are escaped rather than treated as
// wildcards.
func (s *Service) SubstringSearch(ctx context.Context, query string, limit int) ([]search.Result, error) {
	rows, err := s.db.Query(ctx,
		chunkResultQuery+` WHERE c.chunk_text ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY c.id LIMIT $2`,
		escapeLikePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	return scanChunkResults(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

func sanitizeKey(name string) string {
	name = path.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
