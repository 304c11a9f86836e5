package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const fieldProjectID = "project_id"

// Producer appends image generation jobs to a Redis stream.
type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) EnqueueImageJob(ctx context.Context, projectID string) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{fieldProjectID: projectID},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue image job: %w", err)
	}
	return nil
}
