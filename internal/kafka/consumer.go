package kafka

import (
	"context"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/segmentio/kafka-go"
)

type Message = kafka.Message

// Consumer is a thin wrapper around a kafka-go group Reader with manual commits.
type Consumer struct {
	r *kafka.Reader
}

func NewConsumer(cfg config.KafkaConfig) *Consumer {
	min := cfg.MinBytes
	if min <= 0 {
		min = 1 << 10 // 1KB
	}
	max := cfg.MaxBytes
	if max <= 0 {
		max = 10 << 20 // 10MB
	}
	ci := time.Duration(cfg.CommitInterval) * time.Millisecond
	if ci <= 0 {
		ci = time.Second
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.DeliveriesTopic,
		MinBytes:       min,
		MaxBytes:       max,
		CommitInterval: ci,
		MaxWait:        50 * time.Millisecond,
	})

	return &Consumer{r: r}
}

func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, msgs ...Message) error {
	return c.r.CommitMessages(ctx, msgs...)
}

func (c *Consumer) Close() error { return c.r.Close() }
