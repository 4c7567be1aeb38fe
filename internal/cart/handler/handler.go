package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-menu-service/internal/cart"
	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	"github.com/fekuna/omnipos-menu-service/internal/httpapi"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type LineInput struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type CartHandler struct {
	carts   *cart.Registry
	catalog catalog.UseCase
	logger  logger.ZapLogger
}

func NewCartHandler(carts *cart.Registry, catalogUC catalog.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalogUC,
		logger:  log,
	}
}

func (h *CartHandler) Register(r *mux.Router) {
	r.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/cart", h.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/cart/lines", h.AddLine).Methods(http.MethodPost)
	r.HandleFunc("/cart/lines", h.SetQuantity).Methods(http.MethodPatch)
	r.HandleFunc("/cart/lines", h.RemoveLine).Methods(http.MethodDelete)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, err := httpapi.SessionID(r)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, h.carts.View(sessionID))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, err := httpapi.SessionID(r)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	h.carts.Drop(sessionID)
	httpapi.JSON(w, http.StatusOK, h.carts.View(sessionID))
}

// AddLine prices the line from the current catalog, never from the client.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	sessionID, err := httpapi.SessionID(r)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	var in LineInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), in.ProductID)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	if p == nil {
		httpapi.Fail(w, model.ErrProductNotFound)
		return
	}
	price, err := p.PriceFor(in.Size)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}

	c, err := h.carts.Add(sessionID, *p, in.Size, price, in.Quantity)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	h.logger.Debug("cart line added",
		zap.String("session", sessionID),
		zap.String("product_id", p.ID),
		zap.String("size", in.Size),
		zap.Int("quantity", in.Quantity),
	)
	httpapi.JSON(w, http.StatusOK, c.View())
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, err := httpapi.SessionID(r)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	var in LineInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	c, ok := h.carts.Lookup(sessionID)
	if !ok {
		httpapi.Fail(w, model.ErrCartLineNotFound)
		return
	}
	if err := c.SetQuantity(in.ProductID, in.Size, in.Quantity); err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, c.View())
}

// RemoveLine releases the session's cart once its last line is gone.
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	sessionID, err := httpapi.SessionID(r)
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	q := r.URL.Query()
	c, ok := h.carts.Lookup(sessionID)
	if !ok || !c.Remove(q.Get("productId"), q.Get("size")) {
		httpapi.Fail(w, model.ErrCartLineNotFound)
		return
	}
	h.carts.Release(sessionID)
	httpapi.JSON(w, http.StatusOK, h.carts.View(sessionID))
}
