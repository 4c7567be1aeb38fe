// Package storage is the durable key-value layer shared by every store instance.
// Each instance (a "tab") owns an origin id; changes it writes are broadcast to the
// other instances and never echoed back to itself.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SchemaVersion is written into every envelope. A value without an envelope is
// the legacy layout and reads as version 0.
const SchemaVersion = 1

// Backend is the durable key-value area. Get returns (nil, nil) for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Broadcaster carries change notifications between store instances.
// Listen blocks until ctx is done.
type Broadcaster interface {
	Publish(ctx context.Context, change Change) error
	Listen(ctx context.Context, fn func(Change)) error
	Close() error
}

type Change struct {
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value"`
	Origin string          `json:"origin"`
}

type envelope struct {
	Version *int            `json:"version"`
	Data    json.RawMessage `json:"data"`
}

type Option func(*Store)

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithOrigin(origin string) Option {
	return func(s *Store) { s.origin = origin }
}

type Store struct {
	backend Backend
	bus     Broadcaster
	logger  logger.ZapLogger
	origin  string
	prefix  string

	mu       sync.RWMutex
	handlers map[string]map[int]func(json.RawMessage)
	nextID   int
}

// New builds a store. A nil bus is valid for single-instance deployments.
func New(backend Backend, bus Broadcaster, log logger.ZapLogger, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		bus:      bus,
		logger:   log,
		origin:   uuid.New().String(),
		handlers: make(map[string]map[int]func(json.RawMessage)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Origin() string {
	return s.origin
}

// Start listens for changes from other instances until ctx is done.
func (s *Store) Start(ctx context.Context) {
	if s.bus == nil {
		return
	}
	go func() {
		s.logger.Info("Starting storage change listener", zap.String("origin", s.origin))
		if err := s.bus.Listen(ctx, s.dispatch); err != nil && ctx.Err() == nil {
			s.logger.Error("storage change listener stopped", zap.Error(err))
		}
	}()
}

func (s *Store) Close() error {
	if s.bus == nil {
		return nil
	}
	return s.bus.Close()
}

func (s *Store) fullKey(key string) string {
	return s.prefix + key
}

func (s *Store) dispatch(change Change) {
	if change.Origin == s.origin || len(change.Value) == 0 {
		return
	}

	s.mu.RLock()
	fns := make([]func(json.RawMessage), 0, len(s.handlers[change.Key]))
	for _, fn := range s.handlers[change.Key] {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	if len(fns) == 0 {
		return
	}
	s.logger.Debug("applying remote change", zap.String("key", change.Key), zap.String("from", change.Origin))
	for _, fn := range fns {
		fn(change.Value)
	}
}

func (s *Store) subscribe(fullKey string, fn func(json.RawMessage)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.handlers[fullKey] == nil {
		s.handlers[fullKey] = make(map[int]func(json.RawMessage))
	}
	s.handlers[fullKey][id] = fn

	return func() {
		s.mu.Lock()
		delete(s.handlers[fullKey], id)
		s.mu.Unlock()
	}
}

// Lookup reads key into a T. found is false when the key is absent or its content
// cannot be decoded; err is only set when the backend itself failed.
func Lookup[T any](ctx context.Context, s *Store, key string) (value T, found bool, err error) {
	raw, err := s.backend.Get(ctx, s.fullKey(key))
	if err != nil {
		return value, false, fmt.Errorf("read %s: %w", key, err)
	}
	if raw == nil {
		return value, false, nil
	}
	if err := decode(raw, &value); err != nil {
		s.logger.Warn("discarding corrupt stored value", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, false, nil
	}
	return value, true, nil
}

// Load never fails: an absent, corrupt or unreadable entry yields def.
func Load[T any](ctx context.Context, s *Store, key string, def T) T {
	v, found, err := Lookup[T](ctx, s, key)
	if err != nil {
		s.logger.Error("storage read failed, using default", zap.String("key", key), zap.Error(err))
		return def
	}
	if !found {
		return def
	}
	return v
}

// Save writes v under key and notifies the other instances. The write is visible to
// Load on this store as soon as Save returns nil. A failed notification is logged;
// the write already landed, so it is not reported as a save failure.
func Save[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	full := s.fullKey(key)
	if err := s.backend.Put(ctx, full, raw); err != nil {
		s.logger.Error("storage write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("save %s: %w", key, err)
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, Change{Key: full, Value: raw, Origin: s.origin}); err != nil {
			s.logger.Error("failed to broadcast storage change", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Subscribe calls fn with the decoded value whenever another instance changes key.
// The returned func removes the subscription.
func Subscribe[T any](s *Store, key string, fn func(T)) func() {
	return s.subscribe(s.fullKey(key), func(raw json.RawMessage) {
		var v T
		if err := decode(raw, &v); err != nil {
			s.logger.Warn("ignoring undecodable remote change", zap.String("key", key), zap.Error(err))
			return
		}
		fn(v)
	})
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	version := SchemaVersion
	return json.Marshal(envelope{Version: &version, Data: data})
}

func decode(raw []byte, dst any) error {
	payload, err := unwrap(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageDecode, err)
	}
	return nil
}

func unwrap(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Version != nil && env.Data != nil {
			if *env.Version > SchemaVersion {
				return nil, fmt.Errorf("%w: unsupported schema version %d", model.ErrStorageDecode, *env.Version)
			}
			return env.Data, nil
		}
	}
	return trimmed, nil
}
