// Package memory provides an in-process storage area and change bus. Several
// storage.Store instances sharing one Area and one Bus behave like browser tabs
// of the same origin.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/fekuna/omnipos-menu-service/internal/storage"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

type Area struct {
	mu    sync.RWMutex
	data  map[string][]byte
	size  int
	quota int // bytes, 0 means unlimited
}

func NewArea() *Area {
	return &Area{data: make(map[string][]byte)}
}

// NewAreaWithQuota rejects writes that would grow the area beyond quota bytes.
func NewAreaWithQuota(quota int) *Area {
	a := NewArea()
	a.quota = quota
	return a
}

func (a *Area) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (a *Area) Put(_ context.Context, key string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	newSize := a.size - len(a.data[key]) + len(value)
	if a.quota > 0 && newSize > a.quota {
		return ErrQuotaExceeded
	}
	a.data[key] = append([]byte(nil), value...)
	a.size = newSize
	return nil
}

// Bus fans every published change out to all listeners, the publisher included;
// storage.Store drops its own changes by origin.
type Bus struct {
	mu        sync.RWMutex
	listeners map[int]chan storage.Change
	nextID    int
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[int]chan storage.Change)}
}

func (b *Bus) Publish(ctx context.Context, change storage.Change) error {
	b.mu.RLock()
	targets := make([]chan storage.Change, 0, len(b.listeners))
	for _, ch := range b.listeners {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- change:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *Bus) Listen(ctx context.Context, fn func(storage.Change)) error {
	ch := make(chan storage.Change, 256)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-ch:
			fn(change)
		}
	}
}

// Listeners reports how many instances are currently listening.
func (b *Bus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

func (b *Bus) Close() error {
	return nil
}

var (
	_ storage.Backend     = (*Area)(nil)
	_ storage.Broadcaster = (*Bus)(nil)
)
