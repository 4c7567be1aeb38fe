package catalog

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-menu-service/internal/model"
)

type UseCase interface {
	Load(ctx context.Context) error
	Close()

	Snapshot(ctx context.Context) ([]model.Product, []string)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) []model.Product
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	AddProduct(ctx context.Context, p model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	MoveProduct(ctx context.Context, id, category string) error

	ListCategories(ctx context.Context) []string
	AddCategory(ctx context.Context, name string) error
	UpdateCategory(ctx context.Context, oldName, newName string) error
	DeleteCategory(ctx context.Context, name string) error
}
