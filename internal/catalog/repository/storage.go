package repository

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
)

const (
	ProductsKey   = "products"
	CategoriesKey = "categories"
)

type StorageRepository struct {
	store *storage.Store
}

func NewStorageRepository(store *storage.Store) *StorageRepository {
	return &StorageRepository{store: store}
}

func (r *StorageRepository) LoadProducts(ctx context.Context) ([]model.Product, bool, error) {
	return storage.Lookup[[]model.Product](ctx, r.store, ProductsKey)
}

func (r *StorageRepository) LoadCategories(ctx context.Context) ([]string, bool, error) {
	return storage.Lookup[[]string](ctx, r.store, CategoriesKey)
}

func (r *StorageRepository) SaveProducts(ctx context.Context, products []model.Product) error {
	if products == nil {
		products = []model.Product{}
	}
	return storage.Save(ctx, r.store, ProductsKey, products)
}

func (r *StorageRepository) SaveCategories(ctx context.Context, categories []string) error {
	if categories == nil {
		categories = []string{}
	}
	return storage.Save(ctx, r.store, CategoriesKey, categories)
}

func (r *StorageRepository) WatchProducts(fn func([]model.Product)) func() {
	return storage.Subscribe(r.store, ProductsKey, fn)
}

func (r *StorageRepository) WatchCategories(fn func([]string)) func() {
	return storage.Subscribe(r.store, CategoriesKey, fn)
}

var _ catalog.Repository = (*StorageRepository)(nil)
