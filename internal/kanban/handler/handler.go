package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-menu-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-menu-service/internal/httpapi"
	"github.com/fekuna/omnipos-menu-service/internal/kanban"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type KanbanHandler struct {
	board  *kanban.Coordinator
	logger logger.ZapLogger
}

func NewKanbanHandler(board *kanban.Coordinator, log logger.ZapLogger) *KanbanHandler {
	return &KanbanHandler{
		board:  board,
		logger: log,
	}
}

func (h *KanbanHandler) Register(r *mux.Router) {
	r.HandleFunc("/kanban", h.GetBoard).Methods(http.MethodGet)
	r.HandleFunc("/kanban/products", h.SaveProduct).Methods(http.MethodPost)
	r.HandleFunc("/kanban/products/{id}", h.DeleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/kanban/products/{id}/move", h.MoveProduct).Methods(http.MethodPost)
	r.HandleFunc("/kanban/categories", h.AddCategory).Methods(http.MethodPost)
	r.HandleFunc("/kanban/categories/{name}", h.RenameCategory).Methods(http.MethodPut)
	r.HandleFunc("/kanban/categories/{name}", h.DeleteCategory).Methods(http.MethodDelete)
}

func (h *KanbanHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	httpapi.JSON(w, http.StatusOK, h.board.Board(r.Context()))
}

func (h *KanbanHandler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var in dto.ProductInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	p, err := h.board.SaveProduct(r.Context(), in.ToModel())
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, p)
}

func (h *KanbanHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, h.board.Board(r.Context()))
}

// MoveProduct handles a card dropped into another column.
func (h *KanbanHandler) MoveProduct(w http.ResponseWriter, r *http.Request) {
	var in dto.MoveProductInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.board.MoveProduct(r.Context(), id, in.Category); err != nil {
		h.logger.Warn("failed to move product", zap.String("product_id", id), zap.Error(err))
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, h.board.Board(r.Context()))
}

func (h *KanbanHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var in dto.CategoryInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	if err := h.board.AddCategory(r.Context(), in.Name); err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, h.board.Board(r.Context()))
}

func (h *KanbanHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	var in dto.CategoryInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	if err := h.board.RenameCategory(r.Context(), mux.Vars(r)["name"], in.Name); err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, h.board.Board(r.Context()))
}

func (h *KanbanHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeleteCategory(r.Context(), mux.Vars(r)["name"]); err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, h.board.Board(r.Context()))
}
