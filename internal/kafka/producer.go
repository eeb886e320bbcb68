package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes delivery rows as JSON, keyed by customer so one
// customer's rows stay on one partition.
type Producer struct {
	w messageWriter
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{w: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.DeliveriesTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func (p *Producer) Publish(ctx context.Context, deliveries []model.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(deliveries))
	for _, d := range deliveries {
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(d.CustomerID, 10)),
			Value: b,
		})
	}
	return p.w.WriteMessages(ctx, msgs...)
}

func (p *Producer) Close() error { return p.w.Close() }
