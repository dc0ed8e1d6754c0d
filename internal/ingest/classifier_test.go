package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/llm"
)

type fakeGateway struct {
	reply   string
	err     error
	lastReq llm.ChatRequest
}

func (f *fakeGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.reply}, nil
}

func (f *fakeGateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	return nil, errors.New("not implemented")
}

func TestClassifyValidLabel(t *testing.T) {
	gw := &fakeGateway{reply: "annual_report"}
	c := NewClassifier(gw, "test-model", 2000)

	label, err := c.Classify(context.Background(), "ACME FY25", "annual report contents")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != "annual_report" {
		t.Errorf("label = %q, want annual_report", label)
	}
}

func TestClassifyNormalizesReply(t *testing.T) {
	cases := map[string]string{
		"  Annual_Report\n":          "annual_report",
		`"concall_transcript"`:       "concall_transcript",
		"category: research_note":    "research_note",
		"label: annual report":       "annual_report",
		"Quarterly Earnings":         "quarterly_earnings",
		"this is a prospectus":       "other",
		"annual_report or maybe not": "other",
	}
	for reply, want := range cases {
		gw := &fakeGateway{reply: reply}
		c := NewClassifier(gw, "test-model", 2000)
		label, err := c.Classify(context.Background(), "t", "x")
		if err != nil {
			t.Fatalf("Classify(%q): %v", reply, err)
		}
		if label != want {
			t.Errorf("Classify(%q) = %q, want %q", reply, label, want)
		}
	}
}

func TestClassifyFallsBackOnError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("provider down")}
	c := NewClassifier(gw, "test-model", 2000)

	label, err := c.Classify(context.Background(), "t", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if label != "other" {
		t.Errorf("label = %q, want other", label)
	}
}

func TestClassifyTruncatesPreview(t *testing.T) {
	gw := &fakeGateway{reply: "other"}
	c := NewClassifier(gw, "test-model", 100)

	long := strings.Repeat("a", 500)
	if _, err := c.Classify(context.Background(), "t", long); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	user := gw.lastReq.Messages[len(gw.lastReq.Messages)-1].Content
	if strings.Count(user, "a") > 100 {
		t.Errorf("preview not truncated: %d content chars", strings.Count(user, "a"))
	}
}
