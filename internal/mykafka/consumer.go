package mykafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/toptunez/internal/logging"
)

type HandlerFunc func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})}
}

// Run feeds messages to handle until ctx is cancelled. A message whose
// handler fails is logged and committed so one bad event cannot stall the
// partition.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	l := logging.FromContext(ctx).With("topic", c.reader.Config().Topic)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := handle(ctx, msg); err != nil {
			l.Error("event_handle_failed", "offset", msg.Offset, "key", string(msg.Key), "error", err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
