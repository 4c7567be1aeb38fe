package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name string `json:"name"`
}

func startTabs(t *testing.T, n int) (*memory.Area, []*storage.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	area := memory.NewArea()
	bus := memory.NewBus()
	tabs := make([]*storage.Store, n)
	for i := range tabs {
		tabs[i] = storage.New(area, bus, logger.NewNop())
		tabs[i].Start(ctx)
	}
	require.Eventually(t, func() bool { return bus.Listeners() == n }, time.Second, 5*time.Millisecond)
	return area, tabs
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingKeyReturnsDefault", func(t *testing.T) {
		s := storage.New(memory.NewArea(), nil, logger.NewNop())
		got := storage.Load(ctx, s, "categories", []string{"Cafes"})
		require.Equal(t, []string{"Cafes"}, got)
	})

	t.Run("SaveIsVisibleToLoad", func(t *testing.T) {
		s := storage.New(memory.NewArea(), nil, logger.NewNop())
		require.NoError(t, storage.Save(ctx, s, "categories", []string{"Lanches", "Cafes"}))
		require.Equal(t, []string{"Lanches", "Cafes"}, storage.Load[[]string](ctx, s, "categories", nil))
	})

	t.Run("CorruptValueFallsBackToDefault", func(t *testing.T) {
		area := memory.NewArea()
		require.NoError(t, area.Put(ctx, "products", []byte(`{"version":1,"data":[{"name":`)))
		s := storage.New(area, nil, logger.NewNop())

		got := storage.Load(ctx, s, "products", []record{})
		require.Empty(t, got)

		_, found, err := storage.Lookup[[]record](ctx, s, "products")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("LegacyBareValueIsAccepted", func(t *testing.T) {
		area := memory.NewArea()
		require.NoError(t, area.Put(ctx, "categories", []byte(`["Cappuccinos","Cafes"]`)))
		s := storage.New(area, nil, logger.NewNop())
		require.Equal(t, []string{"Cappuccinos", "Cafes"}, storage.Load[[]string](ctx, s, "categories", nil))
	})

	t.Run("FutureSchemaVersionIsTreatedAsAbsent", func(t *testing.T) {
		area := memory.NewArea()
		require.NoError(t, area.Put(ctx, "categories", []byte(`{"version":99,"data":["X"]}`)))
		s := storage.New(area, nil, logger.NewNop())
		require.Equal(t, []string{"default"}, storage.Load(ctx, s, "categories", []string{"default"}))
	})

	t.Run("WritesAreVersioned", func(t *testing.T) {
		area := memory.NewArea()
		s := storage.New(area, nil, logger.NewNop())
		require.NoError(t, storage.Save(ctx, s, "categories", []string{"Cafes"}))
		raw, err := area.Get(ctx, "categories")
		require.NoError(t, err)
		require.JSONEq(t, `{"version":1,"data":["Cafes"]}`, string(raw))
	})

	t.Run("KeyPrefix", func(t *testing.T) {
		area := memory.NewArea()
		s := storage.New(area, nil, logger.NewNop(), storage.WithKeyPrefix("gti."))
		require.NoError(t, storage.Save(ctx, s, "categories", []string{"Cafes"}))
		raw, err := area.Get(ctx, "gti.categories")
		require.NoError(t, err)
		require.NotNil(t, raw)
	})

	t.Run("QuotaFailureIsReported", func(t *testing.T) {
		s := storage.New(memory.NewAreaWithQuota(16), nil, logger.NewNop())
		err := storage.Save(ctx, s, "categories", []string{"Cappuccinos", "Cafes", "Lanches"})
		require.ErrorIs(t, err, memory.ErrQuotaExceeded)
		require.Nil(t, storage.Load[[]string](ctx, s, "categories", nil))
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("OtherTabReceivesChange", func(t *testing.T) {
		_, tabs := startTabs(t, 2)

		var mu sync.Mutex
		var got []string
		storage.Subscribe(tabs[1], "categories", func(v []string) {
			mu.Lock()
			got = v
			mu.Unlock()
		})

		require.NoError(t, storage.Save(ctx, tabs[0], "categories", []string{"Cafes", "Sucos"}))
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(got) == 2
		}, time.Second, 5*time.Millisecond)
		require.Equal(t, []string{"Cafes", "Sucos"}, got)
	})

	t.Run("OwnWritesAreNotEchoed", func(t *testing.T) {
		_, tabs := startTabs(t, 2)

		var mu sync.Mutex
		own, other := 0, 0
		storage.Subscribe(tabs[0], "categories", func([]string) { mu.Lock(); own++; mu.Unlock() })
		storage.Subscribe(tabs[1], "categories", func([]string) { mu.Lock(); other++; mu.Unlock() })

		require.NoError(t, storage.Save(ctx, tabs[0], "categories", []string{"Cafes"}))
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return other == 1
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		require.Zero(t, own)
	})

	t.Run("OtherKeysAreIgnored", func(t *testing.T) {
		_, tabs := startTabs(t, 2)

		var mu sync.Mutex
		categories, orders := 0, 0
		storage.Subscribe(tabs[1], "categories", func([]string) { mu.Lock(); categories++; mu.Unlock() })
		storage.Subscribe(tabs[1], "orders", func([]record) { mu.Lock(); orders++; mu.Unlock() })

		require.NoError(t, storage.Save(ctx, tabs[0], "orders", []record{{Name: "Ana"}}))
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return orders == 1
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		require.Zero(t, categories)
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		_, tabs := startTabs(t, 2)

		var mu sync.Mutex
		calls := 0
		cancel := storage.Subscribe(tabs[1], "categories", func([]string) { mu.Lock(); calls++; mu.Unlock() })
		sentinel := make(chan struct{})
		storage.Subscribe(tabs[1], "orders", func([]record) { close(sentinel) })

		cancel()
		require.NoError(t, storage.Save(ctx, tabs[0], "categories", []string{"Cafes"}))
		require.NoError(t, storage.Save(ctx, tabs[0], "orders", []record{}))

		select {
		case <-sentinel:
		case <-time.After(time.Second):
			t.Fatal("orders change never arrived")
		}
		mu.Lock()
		defer mu.Unlock()
		require.Zero(t, calls)
	})
}
