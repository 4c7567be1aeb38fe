package order

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/model"
)

type Repository interface {
	// LoadOrders returns an empty ledger when nothing was stored yet.
	LoadOrders(ctx context.Context) ([]model.Order, error)
	SaveOrders(ctx context.Context, orders []model.Order) error
	WatchOrders(fn func([]model.Order)) (cancel func())
}
