// Package queue defines the asynq task types exchanged between the API and
// the worker process.
package queue

const TypeDocumentProcess = "document:process"

type DocumentProcessPayload struct {
	DocumentID int64 `json:"document_id"`
}
