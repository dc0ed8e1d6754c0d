package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/llm"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
)

type fakeGateway struct {
	reply   string
	calls   int
	lastReq llm.ChatRequest
}

func (f *fakeGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	f.lastReq = req
	return &llm.ChatResponse{Content: f.reply}, nil
}

func (f *fakeGateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	return nil, errors.New("not implemented")
}

type fakeRetriever struct {
	results []search.Result
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return f.results, nil
}

type historyEntry struct {
	question    string
	answer      string
	citations   []models.Citation
	documentIDs []int64
}

type fakeHistory struct {
	entries []historyEntry
}

func (f *fakeHistory) Append(ctx context.Context, question, answer string, citations []models.Citation, documentIDs []int64) error {
	f.entries = append(f.entries, historyEntry{
		question:    question,
		answer:      answer,
		citations:   citations,
		documentIDs: documentIDs,
	})
	return nil
}

func intPtr(n int) *int { return &n }

func TestAskRefusesWithoutEvidence(t *testing.T) {
	gw := &fakeGateway{}
	s := NewSynthesizer(gw, &fakeRetriever{}, nil, "test-model", 10)

	ans, err := s.Ask(context.Background(), "what is the revenue?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Answer != RefusalAnswer {
		t.Errorf("answer = %q, want refusal", ans.Answer)
	}
	if !ans.InsufficientEvidence {
		t.Error("insufficientEvidence should be true")
	}
	if len(ans.Citations) != 0 {
		t.Errorf("citations = %v, want empty", ans.Citations)
	}
	if gw.calls != 0 {
		t.Errorf("model called %d times, want 0", gw.calls)
	}
}

func TestAskParsesModelJSON(t *testing.T) {
	gw := &fakeGateway{reply: `Here you go:
{"answer": "Revenue grew 12% [ACME FY25, Page 3]", "citations": [{"documentId": 7, "documentTitle": "ACME FY25", "pageNumber": 3, "excerpt": "revenue grew 12%"}], "insufficientEvidence": false}`}
	r := &fakeRetriever{results: []search.Result{
		{ChunkID: 1, DocumentID: 7, DocumentTitle: "ACME FY25", PageNumber: intPtr(3), ChunkText: "revenue grew 12%", Score: 2.1},
	}}
	s := NewSynthesizer(gw, r, nil, "test-model", 10)

	ans, err := s.Ask(context.Background(), "how much did revenue grow?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(ans.Answer, "Revenue grew 12%") {
		t.Errorf("answer = %q", ans.Answer)
	}
	if len(ans.Citations) != 1 || ans.Citations[0].DocumentID != 7 || ans.Citations[0].PageNumber != 3 {
		t.Errorf("citations = %+v", ans.Citations)
	}
	if ans.InsufficientEvidence {
		t.Error("insufficientEvidence should be false")
	}
	if !strings.Contains(gw.lastReq.Messages[0].Content, "[Source 1: ACME FY25, Page 3]") {
		t.Error("prompt missing labelled source block")
	}
}

func TestAskRecordsRefusalInHistory(t *testing.T) {
	gw := &fakeGateway{}
	hist := &fakeHistory{}
	s := NewSynthesizer(gw, &fakeRetriever{}, hist, "test-model", 10)

	if _, err := s.Ask(context.Background(), "what is the revenue?"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if len(hist.entries) != 1 {
		t.Fatalf("history entries = %d, want exactly 1", len(hist.entries))
	}
	e := hist.entries[0]
	if e.answer != RefusalAnswer {
		t.Errorf("recorded answer = %q, want refusal", e.answer)
	}
	if len(e.documentIDs) != 0 || e.documentIDs == nil {
		t.Errorf("documentIDs = %v, want empty non-nil slice", e.documentIDs)
	}
	if len(e.citations) != 0 {
		t.Errorf("citations = %v, want empty", e.citations)
	}
}

func TestAskRecordsDistinctDocumentIDs(t *testing.T) {
	gw := &fakeGateway{reply: `{"answer": "ok", "citations": []}`}
	hist := &fakeHistory{}
	r := &fakeRetriever{results: []search.Result{
		{ChunkID: 1, DocumentID: 7, DocumentTitle: "A", ChunkText: "x"},
		{ChunkID: 2, DocumentID: 7, DocumentTitle: "A", ChunkText: "y"},
		{ChunkID: 3, DocumentID: 9, DocumentTitle: "B", ChunkText: "z"},
	}}
	s := NewSynthesizer(gw, r, hist, "test-model", 10)

	if _, err := s.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if len(hist.entries) != 1 {
		t.Fatalf("history entries = %d, want exactly 1", len(hist.entries))
	}
	want := []int64{7, 9}
	got := hist.entries[0].documentIDs
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("documentIDs = %v, want %v", got, want)
	}
}

func TestAskDegradesOnUnparseableReply(t *testing.T) {
	gw := &fakeGateway{reply: "The revenue grew by twelve percent last year."}
	r := &fakeRetriever{results: []search.Result{
		{ChunkID: 1, DocumentID: 7, DocumentTitle: "ACME FY25", ChunkText: "revenue grew 12%"},
	}}
	s := NewSynthesizer(gw, r, nil, "test-model", 10)

	ans, err := s.Ask(context.Background(), "how much did revenue grow?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Answer != gw.reply {
		t.Errorf("answer = %q, want raw reply", ans.Answer)
	}
	if len(ans.Citations) != 0 {
		t.Errorf("citations = %v, want empty", ans.Citations)
	}
	if ans.InsufficientEvidence {
		t.Error("degraded parse must not claim insufficient evidence")
	}
}

func TestAskDocumentWithoutText(t *testing.T) {
	gw := &fakeGateway{}
	s := NewSynthesizer(gw, &fakeRetriever{}, nil, "test-model", 10)

	doc := &models.Document{ID: 1, Title: "Empty"}
	pages := []models.DocumentPage{{DocumentID: 1, PageNumber: 1, PageText: ""}}

	ans, err := s.AskDocument(context.Background(), doc, pages, "anything?")
	if err != nil {
		t.Fatalf("AskDocument: %v", err)
	}
	if !strings.Contains(ans.Answer, "No text content available") {
		t.Errorf("answer = %q", ans.Answer)
	}
	if gw.calls != 0 {
		t.Errorf("model called %d times, want 0", gw.calls)
	}
}

func TestAskDocumentCitesPages(t *testing.T) {
	gw := &fakeGateway{reply: `{"answer": "Margins fell [Page 2]", "citations": [{"pageNumber": 2, "excerpt": "margins fell"}]}`}
	s := NewSynthesizer(gw, &fakeRetriever{}, nil, "test-model", 10)

	doc := &models.Document{ID: 1, Title: "ACME Q2"}
	pages := []models.DocumentPage{
		{DocumentID: 1, PageNumber: 1, PageText: "intro"},
		{DocumentID: 1, PageNumber: 2, PageText: "margins fell"},
	}

	ans, err := s.AskDocument(context.Background(), doc, pages, "what happened to margins?")
	if err != nil {
		t.Fatalf("AskDocument: %v", err)
	}
	if len(ans.Citations) != 1 || ans.Citations[0].PageNumber != 2 {
		t.Errorf("citations = %+v", ans.Citations)
	}
	if !strings.Contains(gw.lastReq.Messages[0].Content, "[Page 2]\nmargins fell") {
		t.Error("prompt missing page block")
	}
}

func TestAskTruncatesEvidence(t *testing.T) {
	gw := &fakeGateway{reply: `{"answer": "ok", "citations": []}`}
	long := strings.Repeat("x", contextCharBudget)
	r := &fakeRetriever{results: []search.Result{
		{ChunkID: 1, DocumentID: 1, DocumentTitle: "Big", ChunkText: long},
		{ChunkID: 2, DocumentID: 1, DocumentTitle: "Big", ChunkText: long},
	}}
	s := NewSynthesizer(gw, r, nil, "test-model", 10)

	if _, err := s.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(gw.lastReq.Messages[0].Content) > contextCharBudget+500 {
		t.Errorf("prompt length %d exceeds budget", len(gw.lastReq.Messages[0].Content))
	}
}
