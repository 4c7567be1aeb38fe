package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	"github.com/fekuna/omnipos-menu-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"go.uber.org/zap"
)

type catalogUseCase struct {
	repo     catalog.Repository
	defaults []string
	logger   logger.ZapLogger

	mu         sync.Mutex
	products   []model.Product
	categories []string
	unwatch    []func()
}

func NewCatalogUseCase(repo catalog.Repository, defaultCategories []string, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		repo:     repo,
		defaults: slices.Clone(defaultCategories),
		logger:   log,
	}
}

// Load hydrates the in-memory catalog and starts following remote changes.
// Default categories are written when none were ever stored.
func (uc *catalogUseCase) Load(ctx context.Context) error {
	products, _, err := uc.repo.LoadProducts(ctx)
	if err != nil {
		return err
	}
	categories, found, err := uc.repo.LoadCategories(ctx)
	if err != nil {
		return err
	}
	if !found {
		categories = slices.Clone(uc.defaults)
		if err := uc.repo.SaveCategories(ctx, categories); err != nil {
			return err
		}
		uc.logger.Info("Seeded default categories", zap.Strings("categories", categories))
	}

	uc.mu.Lock()
	uc.products = products
	uc.categories = categories
	uc.unwatch = append(uc.unwatch,
		uc.repo.WatchProducts(uc.applyRemoteProducts),
		uc.repo.WatchCategories(uc.applyRemoteCategories),
	)
	uc.mu.Unlock()

	uc.logger.Info("Catalog loaded", zap.Int("products", len(products)), zap.Int("categories", len(categories)))
	return nil
}

func (uc *catalogUseCase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for _, cancel := range uc.unwatch {
		cancel()
	}
	uc.unwatch = nil
}

func (uc *catalogUseCase) applyRemoteProducts(products []model.Product) {
	uc.mu.Lock()
	uc.products = products
	uc.mu.Unlock()
	uc.logger.Debug("products replaced by remote change", zap.Int("count", len(products)))
}

func (uc *catalogUseCase) applyRemoteCategories(categories []string) {
	uc.mu.Lock()
	uc.categories = categories
	uc.mu.Unlock()
	uc.logger.Debug("categories replaced by remote change", zap.Int("count", len(categories)))
}

func (uc *catalogUseCase) Snapshot(ctx context.Context) ([]model.Product, []string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return cloneProducts(uc.products), slices.Clone(uc.categories)
}

func (uc *catalogUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) []model.Product {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := make([]model.Product, 0, len(uc.products))
	for _, p := range uc.products {
		if filters != nil {
			if filters.Category != "" && p.Category != filters.Category {
				continue
			}
			if filters.SearchQuery != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.SearchQuery)) {
				continue
			}
		}
		out = append(out, p.Clone())
	}
	return out
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	i := uc.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	p := uc.products[i].Clone()
	return &p, nil
}

func (uc *catalogUseCase) AddProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return nil, model.ErrProductIDRequired
	}
	if err := p.Normalize(); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if !model.HasCategory(uc.categories, p.Category) {
		return nil, fmt.Errorf("%w: %q", model.ErrCategoryNotFound, p.Category)
	}
	if uc.indexOf(p.ID) >= 0 {
		return nil, fmt.Errorf("%w: %q", model.ErrProductExists, p.ID)
	}

	next := append(cloneProducts(uc.products), p)
	if err := uc.repo.SaveProducts(ctx, next); err != nil {
		return nil, err
	}
	uc.products = next

	out := p.Clone()
	return &out, nil
}

// UpdateProduct replaces the product with the same id. An unknown id is a no-op
// and returns a nil product.
func (uc *catalogUseCase) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(p.ID)
	if i < 0 {
		uc.logger.Debug("update of unknown product ignored", zap.String("product_id", p.ID))
		return nil, nil
	}
	if !model.HasCategory(uc.categories, p.Category) {
		return nil, fmt.Errorf("%w: %q", model.ErrCategoryNotFound, p.Category)
	}

	next := cloneProducts(uc.products)
	next[i] = p
	if err := uc.repo.SaveProducts(ctx, next); err != nil {
		return nil, err
	}
	uc.products = next

	out := p.Clone()
	return &out, nil
}

func (uc *catalogUseCase) DeleteProduct(ctx context.Context, id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i := uc.indexOf(id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(cloneProducts(uc.products), i, i+1)
	if err := uc.repo.SaveProducts(ctx, next); err != nil {
		return err
	}
	uc.products = next
	return nil
}

// MoveProduct refuses unknown categories so no product is ever orphaned.
func (uc *catalogUseCase) MoveProduct(ctx context.Context, id, category string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if !model.HasCategory(uc.categories, category) {
		return fmt.Errorf("%w: %q", model.ErrCategoryNotFound, category)
	}
	i := uc.indexOf(id)
	if i < 0 || uc.products[i].Category == category {
		return nil
	}

	next := cloneProducts(uc.products)
	next[i].Category = category
	if err := uc.repo.SaveProducts(ctx, next); err != nil {
		return err
	}
	uc.products = next
	return nil
}

func (uc *catalogUseCase) ListCategories(ctx context.Context) []string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return slices.Clone(uc.categories)
}

func (uc *catalogUseCase) AddCategory(ctx context.Context, name string) error {
	name = model.NormalizeCategoryName(name)
	if name == "" {
		return model.ErrCategoryNameRequired
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if model.HasCategory(uc.categories, name) {
		return fmt.Errorf("%w: %q", model.ErrCategoryExists, name)
	}
	next := append(slices.Clone(uc.categories), name)
	if err := uc.repo.SaveCategories(ctx, next); err != nil {
		return err
	}
	uc.categories = next
	return nil
}

// UpdateCategory renames a category and every product pointing at it. Both keys
// are written or neither is: when the categories write fails the products key is
// put back and memory is left untouched.
func (uc *catalogUseCase) UpdateCategory(ctx context.Context, oldName, newName string) error {
	oldName = model.NormalizeCategoryName(oldName)
	newName = model.NormalizeCategoryName(newName)
	if newName == "" {
		return model.ErrCategoryNameRequired
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	idx := slices.Index(uc.categories, oldName)
	if idx < 0 {
		return fmt.Errorf("%w: %q", model.ErrCategoryNotFound, oldName)
	}
	if newName == oldName {
		return nil
	}
	if model.HasCategory(uc.categories, newName) {
		return fmt.Errorf("%w: %q", model.ErrCategoryExists, newName)
	}

	nextCategories := slices.Clone(uc.categories)
	nextCategories[idx] = newName

	nextProducts := cloneProducts(uc.products)
	moved := 0
	for i := range nextProducts {
		if nextProducts[i].Category == oldName {
			nextProducts[i].Category = newName
			moved++
		}
	}

	if moved > 0 {
		if err := uc.repo.SaveProducts(ctx, nextProducts); err != nil {
			return err
		}
	}
	if err := uc.repo.SaveCategories(ctx, nextCategories); err != nil {
		if moved > 0 {
			if rbErr := uc.repo.SaveProducts(ctx, uc.products); rbErr != nil {
				uc.logger.Error("failed to roll back products after category rename",
					zap.String("old", oldName), zap.String("new", newName), zap.Error(rbErr))
			}
		}
		return err
	}

	uc.products = nextProducts
	uc.categories = nextCategories
	uc.logger.Info("Category renamed", zap.String("old", oldName), zap.String("new", newName), zap.Int("products", moved))
	return nil
}

func (uc *catalogUseCase) DeleteCategory(ctx context.Context, name string) error {
	name = model.NormalizeCategoryName(name)

	uc.mu.Lock()
	defer uc.mu.Unlock()

	idx := slices.Index(uc.categories, name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", model.ErrCategoryNotFound, name)
	}
	for _, p := range uc.products {
		if p.Category == name {
			return fmt.Errorf("%w: %q", model.ErrCategoryInUse, name)
		}
	}
	if len(uc.categories) <= 1 {
		return model.ErrLastCategory
	}

	next := slices.Delete(slices.Clone(uc.categories), idx, idx+1)
	if err := uc.repo.SaveCategories(ctx, next); err != nil {
		return err
	}
	uc.categories = next
	return nil
}

// indexOf must be called with mu held.
func (uc *catalogUseCase) indexOf(id string) int {
	return slices.IndexFunc(uc.products, func(p model.Product) bool { return p.ID == id })
}

func cloneProducts(in []model.Product) []model.Product {
	out := make([]model.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
