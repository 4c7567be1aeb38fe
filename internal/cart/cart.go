// Package cart holds the customer's in-progress selection. Carts live only in
// memory; a restart or a new session starts empty.
package cart

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/shopspring/decimal"
)

// errRetired is returned by Add on a cart the registry has already let go of.
var errRetired = errors.New("cart retired")

type Cart struct {
	mu      sync.Mutex
	lines   []model.CartLine
	touched time.Time
	retired bool
}

// View is a consistent snapshot of a cart.
type View struct {
	Lines []model.CartLine `json:"lines"`
	Total decimal.Decimal  `json:"total"`
	Count int              `json:"count"`
}

func New() *Cart {
	return &Cart{touched: time.Now()}
}

// Add merges into the line with the same product id and size, otherwise appends.
func (c *Cart) Add(product model.Product, size string, price decimal.Decimal, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: %s", model.ErrInvalidPrice, price)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retired {
		return errRetired
	}
	c.touched = time.Now()
	if i := c.indexOf(product.ID, size); i >= 0 {
		c.lines[i].Quantity += quantity
		return nil
	}
	c.lines = append(c.lines, model.CartLine{
		Product:  product.Clone(),
		Size:     size,
		Price:    price,
		Quantity: quantity,
	})
	return nil
}

// Remove drops the line for exactly this product and size.
func (c *Cart) Remove(productID, size string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID, size)
	if i < 0 {
		return false
	}
	c.lines = slices.Delete(c.lines, i, i+1)
	c.touched = time.Now()
	return true
}

func (c *Cart) SetQuantity(productID, size string, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID, size)
	if i < 0 {
		return model.ErrCartLineNotFound
	}
	c.lines[i].Quantity = quantity
	c.touched = time.Now()
	return nil
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneLines(c.lines)
}

// Total is always recomputed from the lines.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return total(c.lines)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return count(c.lines)
}

// View takes lines, total and count under a single lock.
func (c *Cart) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{Lines: cloneLines(c.lines), Total: total(c.lines), Count: count(c.lines)}
}

// Checkout hands a snapshot of the lines to fn while the cart is locked and
// empties the cart only if fn succeeds.
func (c *Cart) Checkout(fn func(lines []model.CartLine) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := fn(cloneLines(c.lines)); err != nil {
		return err
	}
	c.lines = nil
	return nil
}

// retireIfEmpty marks an empty cart so later adds go to a fresh one.
func (c *Cart) retireIfEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) > 0 {
		return false
	}
	c.retired = true
	return true
}

func (c *Cart) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

func total(lines []model.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

func count(lines []model.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) indexOf(productID, size string) int {
	return slices.IndexFunc(c.lines, func(l model.CartLine) bool { return l.Matches(productID, size) })
}

func cloneLines(in []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, len(in))
	for i, l := range in {
		l.Product = l.Product.Clone()
		out[i] = l
	}
	return out
}
