package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/workstreamlabs/retrieval/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueEntityIndex(payload EntityIndexPayload) error {
	return c.enqueue(TypeEntityIndex, payload,
		asynq.MaxRetry(3), asynq.Timeout(5*time.Minute), asynq.Queue("default"))
}

func (c *Client) EnqueueDocumentIngest(payload DocumentIngestPayload) error {
	return c.enqueue(TypeDocumentIngest, payload,
		asynq.MaxRetry(3), asynq.Timeout(10*time.Minute), asynq.Queue("default"))
}

// EnqueueIndexRebuild schedules a full re-embed of an organization's
// chunks. Rebuilds are heavy, so they run on the low queue.
func (c *Client) EnqueueIndexRebuild(payload IndexRebuildPayload) error {
	return c.enqueue(TypeIndexRebuild, payload,
		asynq.MaxRetry(2), asynq.Timeout(30*time.Minute), asynq.Queue("low"))
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
