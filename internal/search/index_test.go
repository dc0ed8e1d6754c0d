package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
)

func TestBleveIndexRoundTrip(t *testing.T) {
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "chunks.bleve"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer idx.Close()

	chunks := []models.Chunk{
		{ID: 1, DocumentID: 10, ChunkText: "revenue grew strongly this quarter"},
		{ID: 2, DocumentID: 10, ChunkText: "margin pressure continued in retail"},
	}
	if err := idx.IndexChunks(chunks); err != nil {
		t.Fatalf("IndexChunks: %v", err)
	}

	hits, err := idx.Search(context.Background(), "revenue", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != 1 {
		t.Fatalf("hits = %+v, want single hit for chunk 1", hits)
	}

	if err := idx.DeleteChunks([]int64{1}); err != nil {
		t.Fatalf("DeleteChunks: %v", err)
	}
	hits, err = idx.Search(context.Background(), "revenue", 10)
	if err != nil {
		t.Fatalf("Search after delete: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits after delete = %+v, want none", hits)
	}
}
