package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/cart"
	"github.com/fekuna/omnipos-menu-service/internal/httpapi"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/order"
	"github.com/fekuna/omnipos-menu-service/internal/order/dto"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type OrderHandler struct {
	usecase order.UseCase
	carts   *cart.Registry
	logger  logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, carts *cart.Registry, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		usecase: uc,
		carts:   carts,
		logger:  log,
	}
}

func (h *OrderHandler) Register(r *mux.Router) {
	r.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
	r.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", h.DeleteOrder).Methods(http.MethodDelete)
	r.HandleFunc("/orders/{id}/toggle", h.Toggle).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/status", h.UpdateStatus).Methods(http.MethodPut)
}

// Checkout turns the session's cart into an order; the cart is emptied only on success.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID, err := httpapi.SessionID(r)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	var req dto.CheckoutRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Fail(w, err)
		return
	}
	c, ok := h.carts.Lookup(sessionID)
	if !ok {
		httpapi.Fail(w, model.ErrEmptyCart)
		return
	}

	var created *model.Order
	err = c.Checkout(func(lines []model.CartLine) error {
		var err error
		created, err = h.usecase.Checkout(r.Context(), &dto.CheckoutInput{
			CustomerName: req.Name,
			Table:        req.Table,
			Lines:        lines,
		})
		return err
	})
	if err != nil {
		h.logger.Debug("checkout refused", zap.Error(err))
		httpapi.Fail(w, err)
		return
	}
	h.carts.Release(sessionID)
	httpapi.JSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, h.usecase.ListOrders(r.Context(), filters))
}

func parseFilters(r *http.Request) (*dto.OrderFilters, error) {
	q := r.URL.Query()
	f := &dto.OrderFilters{
		Search: q.Get("q"),
		Status: model.OrderStatus(q.Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, model.Validationf("invalid from date %q", v)
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, model.Validationf("invalid to date %q", v)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if v := q.Get("finalizado"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, model.Validationf("invalid finalizado %q", v)
		}
		f.Finalizado = &b
	}
	return f, nil
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.usecase.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.DeleteOrder(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpapi.Fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle reopens a closed order only when the request carries confirm=true.
func (h *OrderHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	confirm := order.ConfirmFunc(func(context.Context, model.Order) bool { return confirmed })

	o, err := h.usecase.Toggle(r.Context(), mux.Vars(r)["id"], confirm)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Fail(w, err)
		return
	}
	o, err := h.usecase.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, o)
}
