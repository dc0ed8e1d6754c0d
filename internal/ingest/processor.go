package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
	"github.com/Aryamaan9/ResearchPortalCodex/pkg/chunker"
	"github.com/Aryamaan9/ResearchPortalCodex/pkg/textextract"
)

// DocumentStore is the record-store surface the pipeline drives, implemented
// by *document.Service.
type DocumentStore interface {
	ClaimProcessing(ctx context.Context, id int64) (bool, error)
	MarkFailed(ctx context.Context, id int64, message string) error
	Finalize(ctx context.Context, id int64, in document.FinalizeInput) ([]models.Chunk, error)
	Download(ctx context.Context, id int64) (*models.Document, io.ReadCloser, error)
}

// Embedder produces vectors for chunk texts. Optional; nil disables the
// semantic indexing step.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorWriter stores chunk embeddings. Optional alongside Embedder.
type VectorWriter interface {
	UpdateChunkEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error
}

// Processor runs the background pipeline for one uploaded document: extract
// text, chunk it, classify the document, then persist everything at once.
type Processor struct {
	docs       DocumentStore
	classifier *Classifier
	ocr        *OCRService
	index      search.Indexer
	chunkOpts  chunker.Options

	embedder Embedder
	vectors  VectorWriter

	logger *slog.Logger
}

func NewProcessor(docs DocumentStore, classifier *Classifier, index search.Indexer, opts chunker.Options, logger *slog.Logger) *Processor {
	return &Processor{
		docs:       docs,
		classifier: classifier,
		ocr:        NewOCRService(),
		index:      index,
		chunkOpts:  opts,
		logger:     logger,
	}
}

// WithSemantic enables embedding generation for new chunks.
func (p *Processor) WithSemantic(e Embedder, v VectorWriter) *Processor {
	p.embedder = e
	p.vectors = v
	return p
}

// Process moves a document from pending to completed or failed. Any error
// after the claim is recorded on the document; the document never returns to
// pending. A document that is not pending is skipped without error.
func (p *Processor) Process(ctx context.Context, documentID int64) error {
	claimed, err := p.docs.ClaimProcessing(ctx, documentID)
	if err != nil {
		return fmt.Errorf("claim document %d: %w", documentID, err)
	}
	if !claimed {
		p.logger.Info("document not pending, skipping", "document_id", documentID)
		return nil
	}

	if err := p.run(ctx, documentID); err != nil {
		p.logger.Error("document processing failed", "document_id", documentID, "error", err)
		// Failure bookkeeping uses a fresh context so a cancelled task context
		// cannot leave the document stuck in processing.
		if markErr := p.docs.MarkFailed(context.WithoutCancel(ctx), documentID, err.Error()); markErr != nil {
			p.logger.Error("mark failed", "document_id", documentID, "error", markErr)
		}
	}
	return nil
}

func (p *Processor) run(ctx context.Context, documentID int64) error {
	doc, rc, err := p.docs.Download(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch stored file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read stored file: %w", err)
	}

	pages, err := p.extractPages(ctx, data, doc.FileType)
	if err != nil {
		return err
	}

	fullText := joinPages(pages)
	if fullText == "" {
		return fmt.Errorf("no text content could be extracted from %s", doc.OriginalFilename)
	}

	chunks := chunker.Split(pages, p.chunkOpts)

	docType, err := p.classifier.Classify(ctx, doc.Title, fullText)
	if err != nil {
		// Classification is not worth failing the whole document over.
		p.logger.Warn("classification failed, defaulting to other", "document_id", documentID, "error", err)
	}

	in := document.FinalizeInput{
		FullText:     fullText,
		PageCount:    len(pages),
		DocumentType: docType,
	}
	for _, pg := range pages {
		in.Pages = append(in.Pages, document.PageInput{Number: pg.Number, Text: pg.Text})
	}
	for _, c := range chunks {
		page := c.PageNumber
		in.Chunks = append(in.Chunks, document.ChunkInput{
			PageNumber: &page,
			Text:       c.Text,
			Index:      c.Index,
			TokenCount: c.TokenCount,
		})
	}

	inserted, err := p.docs.Finalize(ctx, documentID, in)
	if err != nil {
		return fmt.Errorf("finalize document: %w", err)
	}

	p.indexChunks(ctx, documentID, inserted)

	p.logger.Info("document processed",
		"document_id", documentID,
		"pages", len(pages),
		"chunks", len(inserted),
		"document_type", docType,
	)
	return nil
}

func (p *Processor) extractPages(ctx context.Context, data []byte, fileType string) ([]chunker.Page, error) {
	if textextract.IsImage(fileType) {
		text, err := p.ocr.ExtractText(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("image OCR: %w", err)
		}
		return []chunker.Page{{Number: 1, Text: text}}, nil
	}

	res, err := textextract.Extract(data, fileType)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	pages := make([]chunker.Page, 0, len(res.Pages))
	for _, pg := range res.Pages {
		pages = append(pages, chunker.Page{Number: pg.Number, Text: pg.Text})
	}
	return pages, nil
}

// indexChunks runs after the finalize commit. Index and embedding failures
// are logged, not fatal: the substring fallback still finds unindexed chunks.
func (p *Processor) indexChunks(ctx context.Context, documentID int64, chunks []models.Chunk) {
	if err := p.index.IndexChunks(chunks); err != nil {
		p.logger.Error("index chunks", "document_id", documentID, "error", err)
	}

	if p.embedder == nil || p.vectors == nil {
		return
	}

	ids := make([]int64, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		texts[i] = c.ChunkText
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		p.logger.Error("embed chunks", "document_id", documentID, "error", err)
		return
	}
	if err := p.vectors.UpdateChunkEmbeddings(ctx, ids, vectors); err != nil {
		p.logger.Error("store embeddings", "document_id", documentID, "error", err)
	}
}

func joinPages(pages []chunker.Page) string {
	parts := make([]string, 0, len(pages))
	for _, pg := range pages {
		if pg.Text != "" {
			parts = append(parts, pg.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
