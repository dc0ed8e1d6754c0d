// Package qa answers questions over the document corpus and over single
// documents, grounding every answer in retrieved text with citations.
package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/llm"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
)

// RefusalAnswer is the verbatim response for questions the corpus cannot
// support. Clients match on this string, so it must not change.
const RefusalAnswer = "I cannot answer this based on the uploaded documents."

const contextCharBudget = 50000

// Retriever is the corpus retrieval dependency.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// HistoryStore records corpus-wide asks, implemented by *History.
type HistoryStore interface {
	Append(ctx context.Context, question, answer string, citations []models.Citation, documentIDs []int64) error
}

// Answer is the corpus-scoped response shape.
type Answer struct {
	Answer               string            `json:"answer"`
	Citations            []models.Citation `json:"citations"`
	InsufficientEvidence bool              `json:"insufficientEvidence"`
}

// DocumentAnswer is the single-document response shape.
type DocumentAnswer struct {
	Answer    string            `json:"answer"`
	Citations []models.Citation `json:"citations"`
}

// Synthesizer retrieves evidence, prompts the model, and parses the grounded
// answer out of the reply.
type Synthesizer struct {
	gateway   llm.Gateway
	retriever Retriever
	history   HistoryStore
	model     string
	topK      int
}

func NewSynthesizer(gw llm.Gateway, retriever Retriever, history HistoryStore, model string, topK int) *Synthesizer {
	if topK <= 0 {
		topK = 10
	}
	return &Synthesizer{gateway: gw, retriever: retriever, history: history, model: model, topK: topK}
}

// Ask answers a question across all documents. Every ask is recorded in
// history, including refusals issued without calling the model.
func (s *Synthesizer) Ask(ctx context.Context, question string) (*Answer, error) {
	candidates, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}

	if len(candidates) == 0 {
		ans := &Answer{
			Answer:               RefusalAnswer,
			Citations:            []models.Citation{},
			InsufficientEvidence: true,
		}
		s.record(ctx, question, ans, nil)
		return ans, nil
	}

	blocks := make([]string, len(candidates))
	for i, c := range candidates {
		page := "N/A"
		if c.PageNumber != nil {
			page = fmt.Sprintf("%d", *c.PageNumber)
		}
		blocks[i] = fmt.Sprintf("[Source %d: %s, Page %s]\n%s", i+1, c.DocumentTitle, page, c.ChunkText)
	}
	evidence := truncate(strings.Join(blocks, "\n\n---\n\n"), contextCharBudget)

	prompt := fmt.Sprintf(`Answer the following question using ONLY the provided document excerpts.
Cite sources inline like [Document Title, Page X].
If you cannot answer from the provided excerpts, say: %q

Excerpts:
%s

Question: %s

Respond with JSON:
{
  "answer": "your answer with citations inline",
  "citations": [
    {"documentId": 1, "documentTitle": "title", "pageNumber": 1, "excerpt": "relevant quote"}
  ],
  "insufficientEvidence": false
}`, RefusalAnswer, evidence, question)

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:     s.model,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}

	ans := parseAnswer(resp.Content)
	s.record(ctx, question, ans, candidates)
	return ans, nil
}

// AskDocument answers a question scoped to one document's pages. These asks
// are not written to corpus history.
func (s *Synthesizer) AskDocument(ctx context.Context, doc *models.Document, pages []models.DocumentPage, question string) (*DocumentAnswer, error) {
	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.PageText == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[Page %d]\n%s", p.PageNumber, p.PageText))
	}

	if len(blocks) == 0 {
		return &DocumentAnswer{
			Answer:    "No text content available in this document to answer your question.",
			Citations: []models.Citation{},
		}, nil
	}

	evidence := truncate(strings.Join(blocks, "\n\n---\n\n"), contextCharBudget)

	prompt := fmt.Sprintf(`Answer the following question using ONLY the provided document excerpts.
Cite sources inline like [Page X].
If you cannot answer from the provided content, say so.

Document: %s

Content:
%s

Question: %s

Respond with JSON:
{
  "answer": "your answer with [Page X] citations inline",
  "citations": [
    {"pageNumber": 1, "excerpt": "relevant quote from page"}
  ]
}`, doc.Title, evidence, question)

	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:     s.model,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("answer document question: %w", err)
	}

	raw := ExtractJSONObject(resp.Content)
	if raw == "" {
		return &DocumentAnswer{Answer: resp.Content, Citations: []models.Citation{}}, nil
	}
	var ans DocumentAnswer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		return &DocumentAnswer{Answer: resp.Content, Citations: []models.Citation{}}, nil
	}
	if ans.Citations == nil {
		ans.Citations = []models.Citation{}
	}
	return &ans, nil
}

// parseAnswer degrades gracefully when the model reply is not the requested
// JSON shape: the raw text becomes the answer with no citations.
func parseAnswer(content string) *Answer {
	raw := ExtractJSONObject(content)
	if raw == "" {
		return &Answer{Answer: content, Citations: []models.Citation{}}
	}
	var ans Answer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		return &Answer{Answer: content, Citations: []models.Citation{}}
	}
	if ans.Citations == nil {
		ans.Citations = []models.Citation{}
	}
	return &ans
}

func (s *Synthesizer) record(ctx context.Context, question string, ans *Answer, candidates []search.Result) {
	if s.history == nil {
		return
	}
	seen := make(map[int64]bool)
	docIDs := []int64{}
	for _, c := range candidates {
		if !seen[c.DocumentID] {
			seen[c.DocumentID] = true
			docIDs = append(docIDs, c.DocumentID)
		}
	}
	// History is an audit trail; a write failure must not lose the answer.
	_ = s.history.Append(ctx, question, ans.Answer, ans.Citations, docIDs)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
