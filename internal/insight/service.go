// Package insight generates on-demand document summaries and per-page
// analysis, persisting summary artifacts back onto the document row.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/cache"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/llm"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/qa"
)

const (
	summaryTextBudget = 50000
	pageInsightTTL    = 24 * time.Hour
)

// Summary is the full response of a document summary request. Only summary,
// keyThemes and sentiment are persisted on the document.
type Summary struct {
	Summary       string   `json:"summary"`
	KeyThemes     []string `json:"keyThemes"`
	Risks         []string `json:"risks"`
	Opportunities []string `json:"opportunities"`
	Sentiment     string   `json:"sentiment"`
}

type PageInsight struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

type Service struct {
	gateway llm.Gateway
	docs    *document.Service
	cache   *cache.Cache
	model   string
	logger  *slog.Logger
}

func NewService(gw llm.Gateway, docs *document.Service, c *cache.Cache, model string, logger *slog.Logger) *Service {
	return &Service{gateway: gw, docs: docs, cache: c, model: model, logger: logger}
}

// Summarize produces an executive summary of a completed document and stores
// the summary, themes and sentiment on the document row.
func (s *Service) Summarize(ctx context.Context, doc *models.Document) (*Summary, error) {
	text := ""
	if doc.FullText != nil {
		text = *doc.FullText
	}
	if len(text) > summaryTextBudget {
		text = text[:summaryTextBudget]
	}

	prompt := fmt.Sprintf(`Analyze this financial document and provide a comprehensive summary.

Document content:
%s

Please provide:
1. A 3-paragraph executive summary
2. 5-7 key themes (as a JSON array of strings)
3. Top 3 risks (as a JSON array of strings)
4. Top 3 opportunities (as a JSON array of strings)
5. Overall sentiment (one of: positive, negative, neutral, mixed)

Return your response as JSON with this structure:
{
  "summary": "executive summary paragraphs",
  "keyThemes": ["theme1", "theme2", ...],
  "risks": ["risk1", "risk2", "risk3"],
  "opportunities": ["opp1", "opp2", "opp3"],
  "sentiment": "positive|negative|neutral|mixed"
}`, text)

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:     s.model,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	raw := qa.ExtractJSONObject(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("summary reply contained no JSON")
	}
	var sum Summary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		return nil, fmt.Errorf("parse summary reply: %w", err)
	}

	if err := s.docs.UpdateInsights(ctx, doc.ID, sum.Summary, sum.KeyThemes, sum.Sentiment); err != nil {
		return nil, err
	}
	return &sum, nil
}

// PageInsight analyzes a single page. Pages without text get a fixed response
// without a model call. Results are cached per document page.
func (s *Service) PageInsight(ctx context.Context, documentID int64, pageNumber int) (*PageInsight, error) {
	key := fmt.Sprintf("page-insight:%d:%d", documentID, pageNumber)
	if s.cache != nil {
		var cached PageInsight
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	page, err := s.docs.GetPage(ctx, documentID, pageNumber)
	if err != nil {
		return nil, err
	}
	if page == nil || page.PageText == "" {
		return &PageInsight{
			Summary:   "No text content available for this page.",
			KeyPoints: []string{},
		}, nil
	}

	prompt := fmt.Sprintf(`Analyze this page from a financial document and provide insights.

Page content:
%s

Return JSON with:
{
  "summary": "brief 2-3 sentence summary of the page",
  "keyPoints": ["point1", "point2", "point3"]
}`, page.PageText)

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:     s.model,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("generate page insight: %w", err)
	}

	var insight PageInsight
	raw := qa.ExtractJSONObject(resp.Content)
	if raw == "" || json.Unmarshal([]byte(raw), &insight) != nil {
		insight = PageInsight{Summary: resp.Content, KeyPoints: []string{}}
	}
	if insight.KeyPoints == nil {
		insight.KeyPoints = []string{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &insight, pageInsightTTL); err != nil {
			s.logger.Warn("cache page insight", "key", key, "error", err)
		}
	}
	return &insight, nil
}
