package ingest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/pkg/chunker"
)

type fakeDocs struct {
	claimOK bool
	doc     models.Document
	data    []byte

	downloadCalls  int
	failedMessages []string
	finalized      *document.FinalizeInput
	finalizeChunks []models.Chunk
}

func (f *fakeDocs) ClaimProcessing(ctx context.Context, id int64) (bool, error) {
	return f.claimOK, nil
}

func (f *fakeDocs) MarkFailed(ctx context.Context, id int64, message string) error {
	f.failedMessages = append(f.failedMessages, message)
	return nil
}

func (f *fakeDocs) Finalize(ctx context.Context, id int64, in document.FinalizeInput) ([]models.Chunk, error) {
	f.finalized = &in
	return f.finalizeChunks, nil
}

func (f *fakeDocs) Download(ctx context.Context, id int64) (*models.Document, io.ReadCloser, error) {
	f.downloadCalls++
	return &f.doc, io.NopCloser(bytes.NewReader(f.data)), nil
}

type fakeIndexer struct {
	indexed []models.Chunk
	deleted []int64
}

func (f *fakeIndexer) IndexChunks(chunks []models.Chunk) error {
	f.indexed = append(f.indexed, chunks...)
	return nil
}

func (f *fakeIndexer) DeleteChunks(chunkIDs []int64) error {
	f.deleted = append(f.deleted, chunkIDs...)
	return nil
}

func newTestProcessor(docs *fakeDocs, idx *fakeIndexer, label string) *Processor {
	classifier := NewClassifier(&fakeGateway{reply: label}, "test-model", 2000)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProcessor(docs, classifier, idx, chunker.DefaultOptions(), logger)
}

func TestProcessSkipsNonPendingDocument(t *testing.T) {
	docs := &fakeDocs{claimOK: false}
	p := newTestProcessor(docs, &fakeIndexer{}, "other")

	if err := p.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if docs.downloadCalls != 0 {
		t.Errorf("download called %d times for unclaimed document, want 0", docs.downloadCalls)
	}
	if docs.finalized != nil {
		t.Error("finalize ran for unclaimed document")
	}
	if len(docs.failedMessages) != 0 {
		t.Errorf("document marked failed: %v", docs.failedMessages)
	}
}

func TestProcessMarksFailedOnUnsupportedType(t *testing.T) {
	docs := &fakeDocs{
		claimOK: true,
		doc:     models.Document{ID: 1, OriginalFilename: "report.zip", FileType: "application/zip"},
		data:    []byte("not a document"),
	}
	p := newTestProcessor(docs, &fakeIndexer{}, "other")

	if err := p.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(docs.failedMessages) != 1 {
		t.Fatalf("failed messages = %v, want exactly one", docs.failedMessages)
	}
	if !strings.Contains(docs.failedMessages[0], "unsupported file type") {
		t.Errorf("failure message = %q", docs.failedMessages[0])
	}
	if docs.finalized != nil {
		t.Error("finalize ran after extraction failure")
	}
}

func TestProcessMarksFailedOnEmptyText(t *testing.T) {
	docs := &fakeDocs{
		claimOK: true,
		doc:     models.Document{ID: 1, OriginalFilename: "empty.txt", FileType: "text/plain"},
		data:    []byte("   \n  "),
	}
	p := newTestProcessor(docs, &fakeIndexer{}, "other")

	if err := p.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(docs.failedMessages) != 1 {
		t.Fatalf("failed messages = %v, want exactly one", docs.failedMessages)
	}
	if !strings.Contains(docs.failedMessages[0], "no text content") {
		t.Errorf("failure message = %q", docs.failedMessages[0])
	}
}

func TestProcessFinalizesAndIndexes(t *testing.T) {
	inserted := []models.Chunk{{ID: 42, DocumentID: 1, ChunkText: "quarterly revenue rose"}}
	docs := &fakeDocs{
		claimOK:        true,
		doc:            models.Document{ID: 1, Title: "ACME Q3", OriginalFilename: "acme.txt", FileType: "text/plain"},
		data:           []byte("quarterly revenue rose across all segments"),
		finalizeChunks: inserted,
	}
	idx := &fakeIndexer{}
	p := newTestProcessor(docs, idx, "quarterly_earnings")

	if err := p.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if docs.finalized == nil {
		t.Fatal("finalize never ran")
	}
	if docs.finalized.DocumentType != "quarterly_earnings" {
		t.Errorf("document type = %q", docs.finalized.DocumentType)
	}
	if docs.finalized.PageCount != 1 || len(docs.finalized.Pages) != 1 {
		t.Errorf("pages = %d/%d, want 1/1", docs.finalized.PageCount, len(docs.finalized.Pages))
	}
	if len(docs.finalized.Chunks) == 0 {
		t.Error("no chunks in finalize input")
	}
	if len(docs.failedMessages) != 0 {
		t.Errorf("completed document marked failed: %v", docs.failedMessages)
	}
	if len(idx.indexed) != 1 || idx.indexed[0].ID != 42 {
		t.Errorf("indexed chunks = %+v, want the inserted row", idx.indexed)
	}
}
