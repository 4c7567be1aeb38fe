package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Config struct {
	Brokers []string
	Topic   string
	GroupID string // empty gives every instance its own group, so each sees every change
}

type Broadcaster struct {
	cfg    Config
	writer *kafkago.Writer
	logger logger.ZapLogger
}

func NewBroadcaster(cfg *Config, log logger.ZapLogger) *Broadcaster {
	c := *cfg
	if c.GroupID == "" {
		c.GroupID = "menu-" + uuid.New().String()
	}
	// Publish is synchronous and runs under the caller's store lock, so the writer
	// sends every message at once instead of waiting for a batch to fill.
	return &Broadcaster{
		cfg: c,
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  c.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			BatchSize:              1,
			BatchTimeout:           5 * time.Millisecond,
		},
		logger: log,
	}
}

func (b *Broadcaster) Publish(ctx context.Context, change storage.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(change.Key),
		Value: data,
		Time:  time.Now(),
	})
}

func (b *Broadcaster) Listen(ctx context.Context, fn func(storage.Change)) error {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     b.cfg.Brokers,
		Topic:       b.cfg.Topic,
		GroupID:     b.cfg.GroupID,
		StartOffset: kafkago.LastOffset,
	})
	defer reader.Close()

	b.logger.Info("Starting Kafka change listener", zap.String("topic", b.cfg.Topic), zap.String("group", b.cfg.GroupID))
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping Kafka change listener")
			return nil
		default:
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				b.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			var change storage.Change
			if err := json.Unmarshal(msg.Value, &change); err != nil {
				b.logger.Error("Failed to unmarshal storage change", zap.Error(err))
				continue
			}
			fn(change)
		}
	}
}

func (b *Broadcaster) Close() error {
	return b.writer.Close()
}

var _ storage.Broadcaster = (*Broadcaster)(nil)
