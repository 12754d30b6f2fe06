package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/flashdeckhq/flashdeck/internal/config"
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

func (c *Client) EnqueueTokenCleanup() error {
	return c.enqueue(TypeTokenCleanup, nil, asynq.MaxRetry(1), asynq.Timeout(time.Minute))
}

func (c *Client) EnqueueDeckRecount(payload DeckRecountPayload) error {
	return c.enqueue(TypeDeckRecount, payload, asynq.MaxRetry(3), asynq.Timeout(time.Minute))
}

func (c *Client) enqueue(taskType string, payload any, opts ...asynq.Option) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}
	task := asynq.NewTask(taskType, data)
	if _, err := c.client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
