package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/config"
)

type Client struct {
	client  *asynq.Client
	timeout time.Duration
}

func NewClient(cfg config.RedisConfig, processTimeout time.Duration) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		timeout: processTimeout,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueDocumentProcess schedules one processing run for a document. No
// retries: a failed run marks the document failed, and a retry would find it
// in a terminal state anyway.
func (c *Client) EnqueueDocumentProcess(payload DocumentProcessPayload) error {
	return c.enqueue(TypeDocumentProcess, payload, asynq.MaxRetry(0), asynq.Timeout(c.timeout))
}

func (c *Client) enqueue(taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if _, err := c.client.Enqueue(asynq.NewTask(taskType, data), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
