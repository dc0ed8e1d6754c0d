package models

import "time"

// Document is the metadata row for one uploaded file. Extraction artifacts
// (FullText, PageCount, DocumentType) are populated only once ProcessingStatus
// reaches completed.
type Document struct {
	ID               int64      `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	OriginalFilename string     `json:"originalFilename" db:"original_filename"`
	FilePath         string     `json:"filePath" db:"file_path"`
	FileSizeBytes    int64      `json:"fileSizeBytes" db:"file_size_bytes"`
	FileType         string     `json:"fileType" db:"file_type"`
	UploadDate       time.Time  `json:"uploadDate" db:"upload_date"`
	ProcessedDate    *time.Time `json:"processedDate,omitempty" db:"processed_date"`
	ProcessingStatus string     `json:"processingStatus" db:"processing_status"`
	ErrorMessage     *string    `json:"errorMessage,omitempty" db:"error_message"`
	DocumentType     *string    `json:"documentType,omitempty" db:"document_type"`
	FullText         *string    `json:"fullText,omitempty" db:"full_text"`
	PageCount        *int       `json:"pageCount,omitempty" db:"page_count"`
	AISummary        *string    `json:"aiSummary,omitempty" db:"ai_summary"`
	KeyTopics        []string   `json:"keyTopics,omitempty" db:"key_topics"`
	Sentiment        *string    `json:"sentiment,omitempty" db:"sentiment"`
}

// DocumentPage holds the extracted text of one page. One row per true page
// for paginated formats, a single synthetic page for flat ones.
type DocumentPage struct {
	ID         int64  `json:"id" db:"id"`
	DocumentID int64  `json:"documentId" db:"document_id"`
	PageNumber int    `json:"pageNumber" db:"page_number"`
	PageText   string `json:"pageText" db:"page_text"`
}

// Chunk is the unit of lexical retrieval. Embedding is populated only when
// semantic search is enabled.
type Chunk struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID int64     `json:"documentId" db:"document_id"`
	PageNumber *int      `json:"pageNumber,omitempty" db:"page_number"`
	ChunkText  string    `json:"chunkText" db:"chunk_text"`
	ChunkIndex int       `json:"chunkIndex" db:"chunk_index"`
	TokenCount *int      `json:"tokenCount,omitempty" db:"token_count"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Processing status values. Transitions are monotonic:
// pending -> processing -> completed | failed. The last two are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DocumentTypes is the fixed classification label set. Anything the model
// returns outside this set maps to "other".
var DocumentTypes = []string{
	"annual_report",
	"quarterly_earnings",
	"concall_transcript",
	"industry_report",
	"research_note",
	"investor_presentation",
	"regulatory_filing",
	"other",
}

// ValidDocumentType reports whether label is a member of DocumentTypes.
func ValidDocumentType(label string) bool {
	for _, t := range DocumentTypes {
		if t == label {
			return true
		}
	}
	return false
}
