package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// JobHandler executes one image generation job.
type JobHandler interface {
	HandleImageJob(ctx context.Context, projectID string) error
}

type Consumer struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	block         time.Duration
	claimInterval time.Duration
	minIdle       time.Duration
	logger        zerolog.Logger
	handler       JobHandler
}

func NewConsumer(client *redis.Client, stream, group, consumer string, logger zerolog.Logger, handler JobHandler) *Consumer {
	return &Consumer{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		block:         5 * time.Second,
		claimInterval: time.Minute,
		minIdle:       10 * time.Minute,
		logger:        logger,
		handler:       handler,
	}
}

// EnsureGroup creates the consumer group (and stream) if missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Start reads jobs until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if _, err := c.ReadOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error().Err(err).Msg("stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil {
				c.logger.Warn().Err(err).Msg("claim stalled jobs failed")
			}
		default:
		}
	}
}

// ReadOnce reads and handles one batch, returning how many messages were acked.
func (c *Consumer) ReadOnce(ctx context.Context) (int, error) {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    10,
		Block:    c.block,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}

	handled := 0
	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.handleMessage(ctx, msg)
			handled++
		}
	}
	return handled, nil
}

// handleMessage acks every message. Failures are recorded on the project.
func (c *Consumer) handleMessage(ctx context.Context, msg redis.XMessage) {
	projectID, _ := msg.Values[fieldProjectID].(string)
	log := c.logger.With().Str("message_id", msg.ID).Str("project_id", projectID).Logger()

	if projectID == "" {
		log.Warn().Msg("dropping job without project id")
	} else if err := c.handler.HandleImageJob(ctx, projectID); err != nil {
		log.Error().Err(err).Msg("image job failed")
	} else {
		log.Info().Msg("image job completed")
	}

	if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
		log.Error().Err(err).Msg("ack failed")
	}
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  c.minIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		c.handleMessage(ctx, msg)
	}
	return nil
}
