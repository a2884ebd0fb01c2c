// Package notify pushes user-facing messages to an external channel. Delivery
// is fire-and-forget: a failed push is logged and dropped, never surfaced to
// the caller, so notification outages cannot roll back ledger mutations.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message is the payload published for each notification.
type Message struct {
	AccountID uuid.UUID `json:"account_id"`
	Text      string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

// KafkaNotifier publishes notifications to a Kafka topic keyed by account, so
// a consumer sees one account's messages in order.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, accountID uuid.UUID, message string) {
	payload, err := json.Marshal(Message{
		AccountID: accountID,
		Text:      message,
		SentAt:    time.Now(),
	})
	if err != nil {
		zap.L().Error("failed to encode notification", zap.Error(err))
		return
	}
	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(accountID.String()),
		Value: payload,
		Time:  time.Now(),
	}); err != nil {
		zap.L().Warn("failed to publish notification",
			zap.Error(err),
			zap.String("account_id", accountID.String()),
		)
	}
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// LogNotifier writes notifications to the process log. Used when no broker is
// configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, accountID uuid.UUID, message string) {
	zap.L().Info("notification",
		zap.String("account_id", accountID.String()),
		zap.String("message", message),
	)
}
