package kanban

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Column is one category of the board with the products filed under it.
type Column struct {
	Category  string          `json:"category"`
	Products  []model.Product `json:"products"`
	CanDelete bool            `json:"canDelete"`
}

// Coordinator presents the catalog as columns and forwards edits to it.
// It keeps no state of its own; every answer is derived from the catalog at call time.
type Coordinator struct {
	catalog catalog.UseCase
	logger  logger.ZapLogger
}

func NewCoordinator(catalogUC catalog.UseCase, log logger.ZapLogger) *Coordinator {
	return &Coordinator{
		catalog: catalogUC,
		logger:  log,
	}
}

func (c *Coordinator) Board(ctx context.Context) []Column {
	products, categories := c.catalog.Snapshot(ctx)

	columns := make([]Column, len(categories))
	for i, name := range categories {
		columns[i] = Column{
			Category:  name,
			Products:  []model.Product{},
			CanDelete: canDelete(products, categories, name),
		}
	}
	for _, p := range products {
		i := slices.Index(categories, p.Category)
		if i < 0 {
			c.logger.Warn("product filed under unknown category",
				zap.String("product_id", p.ID),
				zap.String("category", p.Category),
			)
			continue
		}
		columns[i].Products = append(columns[i].Products, p)
	}
	return columns
}

func (c *Coordinator) CanDeleteCategory(ctx context.Context, name string) bool {
	products, categories := c.catalog.Snapshot(ctx)
	return canDelete(products, categories, name)
}

func canDelete(products []model.Product, categories []string, name string) bool {
	if len(categories) <= 1 {
		return false
	}
	return !slices.ContainsFunc(products, func(p model.Product) bool { return p.Category == name })
}

func (c *Coordinator) MoveProduct(ctx context.Context, id, category string) error {
	if err := c.catalog.MoveProduct(ctx, id, category); err != nil {
		return err
	}
	c.logger.Debug("product moved", zap.String("product_id", id), zap.String("category", category))
	return nil
}

// SaveProduct adds p when its id is empty or unknown and updates it otherwise.
// An empty id is replaced by a fresh one.
func (c *Coordinator) SaveProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = uuid.New().String()
		return c.catalog.AddProduct(ctx, p)
	}

	existing, err := c.catalog.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return c.catalog.AddProduct(ctx, p)
	}
	return c.catalog.UpdateProduct(ctx, p)
}

func (c *Coordinator) DeleteProduct(ctx context.Context, id string) error {
	return c.catalog.DeleteProduct(ctx, id)
}

func (c *Coordinator) AddCategory(ctx context.Context, name string) error {
	return c.catalog.AddCategory(ctx, name)
}

func (c *Coordinator) RenameCategory(ctx context.Context, oldName, newName string) error {
	return c.catalog.UpdateCategory(ctx, oldName, newName)
}

// DeleteCategory refuses early when the board would not offer deletion; the catalog
// checks again under its own lock.
func (c *Coordinator) DeleteCategory(ctx context.Context, name string) error {
	products, categories := c.catalog.Snapshot(ctx)
	name = model.NormalizeCategoryName(name)
	if !model.HasCategory(categories, name) {
		return fmt.Errorf("%w: %q", model.ErrCategoryNotFound, name)
	}
	if !canDelete(products, categories, name) {
		if len(categories) <= 1 {
			return model.ErrLastCategory
		}
		return fmt.Errorf("%w: %q", model.ErrCategoryInUse, name)
	}
	return c.catalog.DeleteCategory(ctx, name)
}
