package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/llm"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
)

const classifySystemPrompt = `You are a financial document classifier. Classify the document into exactly one of these categories:
annual_report, quarterly_earnings, concall_transcript, industry_report, research_note, investor_presentation, regulatory_filing, other.
Respond with only the category name, nothing else.`

// Classifier assigns a document type label from the document title and an
// opening excerpt of its text.
type Classifier struct {
	gateway    llm.Gateway
	model      string
	previewLen int
}

func NewClassifier(gw llm.Gateway, model string, previewLen int) *Classifier {
	return &Classifier{gateway: gw, model: model, previewLen: previewLen}
}

// Classify returns a validated label, or "other" when the model answers with
// anything outside the known set. The error is advisory; callers treat a
// failed classification as "other" rather than failing the document.
func (c *Classifier) Classify(ctx context.Context, title, text string) (string, error) {
	preview := text
	if len(preview) > c.previewLen {
		preview = preview[:c.previewLen]
	}

	resp, err := c.gateway.Chat(ctx, llm.ChatRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\nContent:\n%s", title, preview)},
		},
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		return "other", fmt.Errorf("classify document: %w", err)
	}

	label := normalizeLabel(resp.Content)
	if !models.ValidDocumentType(label) {
		return "other", nil
	}
	return label, nil
}

func normalizeLabel(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	// Models sometimes prefix the answer ("category: annual_report"). The
	// prefix has to go before whitespace is folded into underscores.
	if i := strings.LastIndexByte(label, ':'); i >= 0 {
		label = strings.TrimSpace(label[i+1:])
	}
	label = strings.Trim(label, `"'.`)
	label = strings.ReplaceAll(label, " ", "_")
	return label
}
