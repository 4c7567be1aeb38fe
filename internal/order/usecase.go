package order

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/order/dto"
)

// Confirmer is asked before a closed order is reopened.
type Confirmer interface {
	ConfirmReopen(ctx context.Context, o model.Order) bool
}

type ConfirmFunc func(ctx context.Context, o model.Order) bool

func (f ConfirmFunc) ConfirmReopen(ctx context.Context, o model.Order) bool {
	return f(ctx, o)
}

type UseCase interface {
	Load(ctx context.Context) error
	Close()

	Checkout(ctx context.Context, input *dto.CheckoutInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) []model.Order

	// Toggle closes an open order at once; reopening a closed one needs confirm.
	Toggle(ctx context.Context, id string, confirm Confirmer) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)

	// DeleteOrder is an administrative override.
	DeleteOrder(ctx context.Context, id string) error
}
