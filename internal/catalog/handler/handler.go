package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	"github.com/fekuna/omnipos-menu-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-menu-service/internal/httpapi"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	logger logger.ZapLogger
}

func NewCatalogHandler(uc catalog.UseCase, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CatalogHandler) Register(r *mux.Router) {
	r.HandleFunc("/catalog/products", h.ListProducts).Methods(http.MethodGet)
	r.HandleFunc("/catalog/products", h.CreateProduct).Methods(http.MethodPost)
	r.HandleFunc("/catalog/products/{id}", h.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/catalog/products/{id}", h.UpdateProduct).Methods(http.MethodPut)
	r.HandleFunc("/catalog/products/{id}", h.DeleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/catalog/categories", h.ListCategories).Methods(http.MethodGet)
	r.HandleFunc("/catalog/categories", h.CreateCategory).Methods(http.MethodPost)
	r.HandleFunc("/catalog/categories/{name}", h.UpdateCategory).Methods(http.MethodPut)
	r.HandleFunc("/catalog/categories/{name}", h.DeleteCategory).Methods(http.MethodDelete)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := h.uc.ListProducts(r.Context(), &dto.ProductFilters{
		Category:    q.Get("category"),
		SearchQuery: q.Get("q"),
	})
	httpapi.JSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	if p == nil {
		httpapi.Fail(w, model.ErrProductNotFound)
		return
	}
	httpapi.JSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in dto.ProductInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	p, err := h.uc.AddProduct(r.Context(), in.ToModel())
	if err != nil {
		h.logger.Warn("failed to create product", zap.String("product_id", in.ID), zap.Error(err))
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in dto.ProductInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	in.ID = mux.Vars(r)["id"]

	p, err := h.uc.UpdateProduct(r.Context(), in.ToModel())
	if err != nil {
		httpapi.Fail(w, err)
		return
	}
	if p == nil {
		httpapi.Fail(w, model.ErrProductNotFound)
		return
	}
	httpapi.JSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpapi.Fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	httpapi.JSON(w, http.StatusOK, h.uc.ListCategories(r.Context()))
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in dto.CategoryInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	if err := h.uc.AddCategory(r.Context(), in.Name); err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, h.uc.ListCategories(r.Context()))
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in dto.CategoryInput
	if err := httpapi.Decode(r, &in); err != nil {
		httpapi.Fail(w, err)
		return
	}
	if err := h.uc.UpdateCategory(r.Context(), mux.Vars(r)["name"], in.Name); err != nil {
		httpapi.Fail(w, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, h.uc.ListCategories(r.Context()))
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteCategory(r.Context(), mux.Vars(r)["name"]); err != nil {
		httpapi.Fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
