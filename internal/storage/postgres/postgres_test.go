package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const (
	selectQuery = "SELECT value FROM kv_store WHERE key = $1 LIMIT 1"
	upsertQuery = "INSERT INTO kv_store (key, value, updated_at)"
)

func newMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewBackend(sqlx.NewDb(db, "pgx"), "kv_store"), mock
}

// captured remembers the value written so a later read can return it.
type captured struct{ value string }

func (c *captured) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		c.value = s
	}
	return ok
}

func TestConfigDSN(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "pos", Password: "secret", DBName: "menu", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=pos password=secret dbname=menu sslmode=disable", cfg.DSN())
}

func TestNewBackendTable(t *testing.T) {
	require.Equal(t, "menu_kv", NewBackend(nil, "menu_kv").table)
	require.Equal(t, defaultTable, NewBackend(nil, "kv; DROP TABLE x").table)
	require.Equal(t, defaultTable, NewBackend(nil, "").table)
}

func TestBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("EnsureSchema", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv_store")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, b.EnsureSchema(ctx))
	})

	t.Run("GetMissingKey", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
			WithArgs("products").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		raw, err := b.Get(ctx, "products")
		require.NoError(t, err)
		require.Nil(t, raw)
	})

	t.Run("GetValue", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
			WithArgs("categories").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"version": 1, "data": ["Cafes"]}`)))

		raw, err := b.Get(ctx, "categories")
		require.NoError(t, err)
		require.JSONEq(t, `{"version":1,"data":["Cafes"]}`, string(raw))
	})

	t.Run("GetFailure", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
			WithArgs("orders").
			WillReturnError(errors.New("connection reset"))

		_, err := b.Get(ctx, "orders")
		require.ErrorContains(t, err, "connection reset")
	})

	t.Run("PutUpserts", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
			WithArgs("orders", `[]`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, b.Put(ctx, "orders", []byte(`[]`)))
	})
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, mock := newMockBackend(t)
	store := storage.New(b, nil, logger.NewNop(), storage.WithKeyPrefix("pos:"))

	written := &captured{}
	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("pos:categories", written).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, storage.Save(ctx, store, "categories", []string{"Cafes", "Lanches"}))
	require.JSONEq(t, `{"version":1,"data":["Cafes","Lanches"]}`, written.value)

	// jsonb hands the document back re-spaced
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("pos:categories").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"data": ["Cafes", "Lanches"], "version": 1}`)))
	got, found, err := storage.Lookup[[]string](ctx, store, "categories")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"Cafes", "Lanches"}, got)

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("pos:products").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, found, err = storage.Lookup[[]string](ctx, store, "products")
	require.NoError(t, err)
	require.False(t, found)
}
