package repository

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/order"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
)

const OrdersKey = "orders"

type StorageRepository struct {
	store *storage.Store
}

func NewStorageRepository(store *storage.Store) *StorageRepository {
	return &StorageRepository{store: store}
}

func (r *StorageRepository) LoadOrders(ctx context.Context) ([]model.Order, error) {
	orders, _, err := storage.Lookup[[]model.Order](ctx, r.store, OrdersKey)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *StorageRepository) SaveOrders(ctx context.Context, orders []model.Order) error {
	if orders == nil {
		orders = []model.Order{}
	}
	return storage.Save(ctx, r.store, OrdersKey, orders)
}

func (r *StorageRepository) WatchOrders(fn func([]model.Order)) func() {
	return storage.Subscribe(r.store, OrdersKey, fn)
}

var _ order.Repository = (*StorageRepository)(nil)
