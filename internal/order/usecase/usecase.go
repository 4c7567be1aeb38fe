package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/order"
	"github.com/fekuna/omnipos-menu-service/internal/order/dto"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Options struct {
	OrderNumberDigits int
	MaxIDAttempts     int
	IDs               IDSource
	Now               func() time.Time
}

type orderUseCase struct {
	repo   order.Repository
	logger logger.ZapLogger

	digits   int
	attempts int
	ids      IDSource
	now      func() time.Time

	mu      sync.Mutex
	orders  []model.Order // newest first
	unwatch func()
}

func NewOrderUseCase(repo order.Repository, opts Options, log logger.ZapLogger) order.UseCase {
	uc := &orderUseCase{
		repo:     repo,
		logger:   log,
		digits:   opts.OrderNumberDigits,
		attempts: opts.MaxIDAttempts,
		ids:      opts.IDs,
		now:      opts.Now,
	}
	if uc.digits == 0 {
		uc.digits = DefaultOrderNumberDigits
	}
	if uc.digits < MinOrderNumberDigits {
		uc.digits = MinOrderNumberDigits
	}
	if uc.attempts <= 0 {
		uc.attempts = DefaultMaxIDAttempts
	}
	if uc.ids == nil {
		uc.ids = randomIDs{}
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

func (uc *orderUseCase) Load(ctx context.Context) error {
	orders, err := uc.repo.LoadOrders(ctx)
	if err != nil {
		return err
	}
	uc.checkTotals(orders)

	uc.mu.Lock()
	uc.orders = orders
	uc.unwatch = uc.repo.WatchOrders(uc.applyRemoteOrders)
	uc.mu.Unlock()

	uc.logger.Info("Order ledger loaded", zap.Int("orders", len(orders)))
	return nil
}

func (uc *orderUseCase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.unwatch != nil {
		uc.unwatch()
		uc.unwatch = nil
	}
}

func (uc *orderUseCase) applyRemoteOrders(orders []model.Order) {
	uc.checkTotals(orders)
	uc.mu.Lock()
	uc.orders = orders
	uc.mu.Unlock()
	uc.logger.Debug("orders replaced by remote change", zap.Int("count", len(orders)))
}

// checkTotals reports stored orders whose amounts no longer add up. They are kept as stored.
func (uc *orderUseCase) checkTotals(orders []model.Order) {
	for _, o := range orders {
		if !o.Consistent() {
			uc.logger.Warn("stored order is inconsistent",
				zap.String("order_id", o.ID),
				zap.String("stored_total", o.Total.String()),
				zap.String("computed_total", o.ComputedTotal().String()),
			)
		}
	}
}

func (uc *orderUseCase) Checkout(ctx context.Context, input *dto.CheckoutInput) (*model.Order, error) {
	name := strings.TrimSpace(input.CustomerName)
	table := strings.TrimSpace(input.Table)
	if name == "" {
		return nil, model.ErrCustomerNameRequired
	}
	if table == "" {
		return nil, model.ErrTableRequired
	}
	if len(input.Lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	items := make([]model.OrderItem, 0, len(input.Lines))
	total := decimal.Zero
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s", model.ErrInvalidQuantity, line.Product.Name)
		}
		item := model.NewOrderItem(line)
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	id, err := uc.uniqueID()
	if err != nil {
		return nil, err
	}
	number, err := uc.uniqueNumber()
	if err != nil {
		return nil, err
	}

	o := model.Order{
		ID:           id,
		OrderNumber:  number,
		CreatedAt:    uc.now().UTC(),
		CustomerName: name,
		Table:        table,
		Items:        items,
		Total:        total,
	}
	o.SetStatus(model.StatusPending)

	next := make([]model.Order, 0, len(uc.orders)+1)
	next = append(next, o)
	next = append(next, uc.orders...)
	if err := uc.repo.SaveOrders(ctx, next); err != nil {
		return nil, err
	}
	uc.orders = next

	uc.logger.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("table", o.Table),
		zap.String("total", o.Total.StringFixed(2)),
	)
	out := o.Clone()
	return &out, nil
}

// uniqueID and uniqueNumber check against the live ledger; mu must be held.
func (uc *orderUseCase) uniqueID() (string, error) {
	for range uc.attempts {
		id := uc.ids.OrderID()
		if !slices.ContainsFunc(uc.orders, func(o model.Order) bool { return o.ID == id }) {
			return id, nil
		}
	}
	return "", model.ErrOrderNumberExhausted
}

func (uc *orderUseCase) uniqueNumber() (string, error) {
	for attempt := range uc.attempts {
		n := uc.ids.OrderNumber(uc.digits)
		if !slices.ContainsFunc(uc.orders, func(o model.Order) bool { return o.OrderNumber == n }) {
			if attempt > 0 {
				uc.logger.Debug("order number regenerated after collision", zap.Int("attempts", attempt+1))
			}
			return n, nil
		}
	}
	uc.logger.Error("order number space exhausted", zap.Int("digits", uc.digits), zap.Int("orders", len(uc.orders)))
	return "", model.ErrOrderNumberExhausted
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(id)
	if i < 0 {
		return nil, model.ErrOrderNotFound
	}
	o := uc.orders[i].Clone()
	return &o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) []model.Order {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := make([]model.Order, 0, len(uc.orders))
	for _, o := range uc.orders {
		if filters != nil && !matches(o, filters) {
			continue
		}
		out = append(out, o.Clone())
	}
	return out
}

func matches(o model.Order, f *dto.OrderFilters) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		hit := false
		for _, field := range []string{o.CustomerName, o.ID, o.OrderNumber, o.Table} {
			if strings.Contains(strings.ToLower(field), term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.From != nil && o.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && o.CreatedAt.After(*f.To) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Finalizado != nil && o.Finalizado != *f.Finalizado {
		return false
	}
	return true
}

func (uc *orderUseCase) Toggle(ctx context.Context, id string, confirm order.Confirmer) (*model.Order, error) {
	uc.mu.Lock()
	i := uc.indexOf(id)
	if i < 0 {
		uc.mu.Unlock()
		return nil, model.ErrOrderNotFound
	}
	current := uc.orders[i].Clone()
	if !current.Closed() {
		defer uc.mu.Unlock()
		return uc.setStatus(ctx, i, model.StatusDone)
	}
	uc.mu.Unlock()

	// The confirmer may block on a person; it is asked without holding the ledger.
	if confirm == nil || !confirm.ConfirmReopen(ctx, current) {
		uc.logger.Debug("reopen not confirmed", zap.String("order_id", id))
		return &current, model.ErrReopenNotConfirmed
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	i = uc.indexOf(id)
	if i < 0 {
		return nil, model.ErrOrderNotFound
	}
	if !uc.orders[i].Closed() {
		o := uc.orders[i].Clone()
		return &o, nil
	}
	return uc.setStatus(ctx, i, model.StatusPending)
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(id)
	if i < 0 {
		return nil, model.ErrOrderNotFound
	}
	return uc.setStatus(ctx, i, status)
}

// setStatus persists a status change of the order at index i; mu must be held.
func (uc *orderUseCase) setStatus(ctx context.Context, i int, status model.OrderStatus) (*model.Order, error) {
	next := slices.Clone(uc.orders)
	o := next[i].Clone()
	from := o.Status
	o.SetStatus(status)
	next[i] = o

	if err := uc.repo.SaveOrders(ctx, next); err != nil {
		return nil, err
	}
	uc.orders = next

	uc.logger.Info("Order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	out := o.Clone()
	return &out, nil
}

func (uc *orderUseCase) DeleteOrder(ctx context.Context, id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(id)
	if i < 0 {
		return model.ErrOrderNotFound
	}
	next := slices.Delete(slices.Clone(uc.orders), i, i+1)
	if err := uc.repo.SaveOrders(ctx, next); err != nil {
		return err
	}
	uc.orders = next
	uc.logger.Warn("Order deleted by administrator", zap.String("order_id", id))
	return nil
}

func (uc *orderUseCase) indexOf(id string) int {
	return slices.IndexFunc(uc.orders, func(o model.Order) bool { return o.ID == id })
}
