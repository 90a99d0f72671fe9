package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type deadLetter struct {
	Reason     string    `json:"reason"`
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// DeadLetterQueue keeps callback bodies that could not be handled in a
// capped Redis list for manual replay.
type DeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
	maxLen   int64
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger, prefix string) *DeadLetterQueue {
	return &DeadLetterQueue{
		client:   client,
		logger:   logger,
		listName: fmt.Sprintf("%s:callbacks:dead-letter", prefix),
		maxLen:   10000,
	}
}

func (q *DeadLetterQueue) Send(ctx context.Context, payload []byte, reason string) error {
	data, err := json.Marshal(deadLetter{Reason: reason, Payload: string(payload), ReceivedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.listName, data)
	pipe.LTrim(ctx, q.listName, 0, q.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		q.logger.Error("failed to store dead letter", zap.String("list", q.listName), zap.Error(err))
		return err
	}
	return nil
}

// LogDeadLetterQueue only logs. Used when Redis is not configured.
type LogDeadLetterQueue struct {
	logger *zap.Logger
}

func NewLogDeadLetterQueue(logger *zap.Logger) *LogDeadLetterQueue {
	return &LogDeadLetterQueue{logger: logger}
}

func (q *LogDeadLetterQueue) Send(_ context.Context, payload []byte, reason string) error {
	q.logger.Warn("dead letter", zap.String("reason", reason), zap.ByteString("payload", payload))
	return nil
}
