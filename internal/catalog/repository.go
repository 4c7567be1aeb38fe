package catalog

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/model"
)

type Repository interface {
	// Load* report found=false when the key was never written or is unreadable.
	LoadProducts(ctx context.Context) ([]model.Product, bool, error)
	LoadCategories(ctx context.Context) ([]string, bool, error)
	SaveProducts(ctx context.Context, products []model.Product) error
	SaveCategories(ctx context.Context, categories []string) error

	// Watch* fire when another instance rewrites the collection.
	WatchProducts(fn func([]model.Product)) (cancel func())
	WatchCategories(fn func([]string)) (cancel func())
}
