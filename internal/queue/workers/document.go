package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/ingest"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/queue"
)

// DocumentWorker dispatches document processing tasks to the ingest pipeline.
type DocumentWorker struct {
	processor *ingest.Processor
}

func NewDocumentWorker(processor *ingest.Processor) *DocumentWorker {
	return &DocumentWorker{processor: processor}
}

func (w *DocumentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return w.processor.Process(ctx, payload.DocumentID)
}
