package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(ctx context.Context, cfg *Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Backend stores each key as a plain redis string. The client is owned by the caller.
type Backend struct {
	Client *goredis.Client
}

func NewBackend(client *goredis.Client) *Backend {
	return &Backend{Client: client}
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	return b.Client.Set(ctx, key, value, 0).Err()
}

// Broadcaster publishes changes on a single pub/sub channel.
type Broadcaster struct {
	Client     *goredis.Client
	Channel    string
	RetryDelay time.Duration
	logger     logger.ZapLogger
}

func NewBroadcaster(client *goredis.Client, channel string, log logger.ZapLogger) *Broadcaster {
	return &Broadcaster{Client: client, Channel: channel, RetryDelay: time.Second, logger: log}
}

func (b *Broadcaster) Publish(ctx context.Context, change storage.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.Client.Publish(ctx, b.Channel, data).Err()
}

// Listen keeps a subscription open until ctx is done, resubscribing after
// failures. Changes published while disconnected are lost.
func (b *Broadcaster) Listen(ctx context.Context, fn func(storage.Change)) error {
	b.logger.Info("Starting Redis change listener", zap.String("channel", b.Channel))
	for {
		err := b.listenOnce(ctx, fn)
		if ctx.Err() != nil {
			b.logger.Info("Stopping Redis change listener")
			return nil
		}
		b.logger.Error("Redis subscription lost, retrying", zap.String("channel", b.Channel), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.RetryDelay):
		}
	}
}

func (b *Broadcaster) listenOnce(ctx context.Context, fn func(storage.Change)) error {
	sub := b.Client.Subscribe(ctx, b.Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.Channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			var change storage.Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				b.logger.Error("Failed to unmarshal storage change", zap.Error(err))
				continue
			}
			fn(change)
		}
	}
}

func (b *Broadcaster) Close() error {
	return nil
}

var (
	_ storage.Backend     = (*Backend)(nil)
	_ storage.Broadcaster = (*Broadcaster)(nil)
)
