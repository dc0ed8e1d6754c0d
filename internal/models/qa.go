package models

import "time"

// Citation points an answer back to its supporting excerpt. DocumentID and
// DocumentTitle are set for corpus-scoped answers only.
type Citation struct {
	DocumentID    int64  `json:"documentId,omitempty"`
	DocumentTitle string `json:"documentTitle,omitempty"`
	PageNumber    int    `json:"pageNumber,omitempty"`
	Excerpt       string `json:"excerpt"`
}

// QAHistory is one immutable record of a corpus-wide question, written for
// every ask including refusals and degraded parses.
type QAHistory struct {
	ID          int64      `json:"id" db:"id"`
	Question    string     `json:"question" db:"question"`
	Answer      string     `json:"answer" db:"answer"`
	Citations   []Citation `json:"citations" db:"citations"`
	DocumentIDs []int64    `json:"documentIds" db:"document_ids"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}
