package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-menu-service/internal/cart"
	carthandler "github.com/fekuna/omnipos-menu-service/internal/cart/handler"
	catalogrepo "github.com/fekuna/omnipos-menu-service/internal/catalog/repository"
	catalogusecase "github.com/fekuna/omnipos-menu-service/internal/catalog/usecase"
	"github.com/fekuna/omnipos-menu-service/internal/httpapi"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/order/handler"
	orderrepo "github.com/fekuna/omnipos-menu-service/internal/order/repository"
	orderusecase "github.com/fekuna/omnipos-menu-service/internal/order/usecase"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/internal/storage/memory"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*mux.Router, *cart.Registry) {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	store := storage.New(memory.NewArea(), nil, log)

	catalogUC := catalogusecase.NewCatalogUseCase(catalogrepo.NewStorageRepository(store), []string{"Cafes"}, log)
	require.NoError(t, catalogUC.Load(ctx))
	_, err := catalogUC.AddProduct(ctx, model.Product{
		ID:       "latte",
		Name:     "Latte",
		Category: "Cafes",
		Sizes:    []model.PriceOption{{Size: "P", Price: "6,50"}, {Size: "M", Price: "8,00"}},
	})
	require.NoError(t, err)

	orderUC := orderusecase.NewOrderUseCase(orderrepo.NewStorageRepository(store), orderusecase.Options{}, log)
	require.NoError(t, orderUC.Load(ctx))
	t.Cleanup(func() {
		catalogUC.Close()
		orderUC.Close()
	})

	carts := cart.NewRegistry()
	return httpapi.NewRouter(log,
		carthandler.NewCartHandler(carts, catalogUC, log),
		handler.NewOrderHandler(orderUC, carts, log),
	), carts
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set(httpapi.SessionHeader, "tab-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) model.Order {
	t.Helper()
	var o model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	return o
}

func TestCheckoutFlow(t *testing.T) {
	r, carts := newServer(t)

	rec := do(t, r, http.MethodPost, "/api/checkout", `{"name":"Ana","table":"5"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	rec = do(t, r, http.MethodPost, "/api/cart/lines", `{"productId":"latte","size":"M","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/checkout", `{"name":"","table":"5"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/checkout", `{"name":"Ana","table":"5"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeOrder(t, rec)
	require.True(t, created.Total.Equal(decimal.RequireFromString("8")))
	require.Equal(t, model.StatusPending, created.Status)

	rec = do(t, r, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"count":0`)
	require.Equal(t, 0, carts.Len(), "checked-out cart is released")

	rec = do(t, r, http.MethodGet, "/api/orders/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, created.OrderNumber, decodeOrder(t, rec).OrderNumber)

	rec = do(t, r, http.MethodGet, "/api/orders/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleAndStatus(t *testing.T) {
	r, _ := newServer(t)
	do(t, r, http.MethodPost, "/api/cart/lines", `{"productId":"latte","size":"P","quantity":2}`)
	created := decodeOrder(t, do(t, r, http.MethodPost, "/api/checkout", `{"name":"Ana","table":"5"}`))
	path := "/api/orders/" + created.ID

	rec := do(t, r, http.MethodPost, path+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeOrder(t, rec).Finalizado)

	rec = do(t, r, http.MethodPost, path+"/toggle", "")
	require.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = do(t, r, http.MethodPost, path+"/toggle?confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	o := decodeOrder(t, rec)
	require.Equal(t, model.StatusPending, o.Status)
	require.False(t, o.Finalizado)

	rec = do(t, r, http.MethodPut, path+"/status", `{"status":"ready"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.StatusReady, decodeOrder(t, rec).Status)

	rec = do(t, r, http.MethodPut, path+"/status", `{"status":"lost"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrdersQuery(t *testing.T) {
	r, _ := newServer(t)
	do(t, r, http.MethodPost, "/api/cart/lines", `{"productId":"latte","size":"P","quantity":1}`)
	created := decodeOrder(t, do(t, r, http.MethodPost, "/api/checkout", `{"name":"Ana","table":"5"}`))

	list := func(query string) []model.Order {
		rec := do(t, r, http.MethodGet, "/api/orders"+query, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var orders []model.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
		return orders
	}

	require.Len(t, list(""), 1)
	require.Len(t, list("?q=ana"), 1)
	require.Empty(t, list("?q=bruno"))
	require.Len(t, list("?finalizado=false"), 1)
	require.Empty(t, list("?status=done"))

	day := created.CreatedAt.Format("2006-01-02")
	require.Len(t, list("?from="+day+"&to="+day), 1)
	require.Empty(t, list("?to=2000-01-01"))

	rec := do(t, r, http.MethodGet, "/api/orders?from=yesterday", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, r, http.MethodGet, "/api/orders?status=lost", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutNeedsSession(t *testing.T) {
	r, _ := newServer(t)
	do(t, r, http.MethodPost, "/api/cart/lines", `{"productId":"latte","size":"M","quantity":1}`)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"name":"Ana","table":"5"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"name":"Ana","table":"5"}`))
	req.Header.Set(httpapi.SessionHeader, "someone-else")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code, "another session has no cart")

	rec = do(t, r, http.MethodGet, "/api/orders", "")
	require.JSONEq(t, `[]`, rec.Body.String())
}
