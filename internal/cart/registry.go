package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/shopspring/decimal"
)

// Registry keeps one cart per customer session. Carts are created on the first
// add and released once they are empty or have been idle too long.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[string]*Cart)}
}

// Lookup returns the session's cart without creating one.
func (r *Registry) Lookup(sessionID string) (*Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[sessionID]
	return c, ok
}

func (r *Registry) get(sessionID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[sessionID]
	if !ok {
		c = New()
		r.carts[sessionID] = c
	}
	return c
}

// Add puts a line into the session's cart, creating the cart when needed.
func (r *Registry) Add(sessionID string, product model.Product, size string, price decimal.Decimal, quantity int) (*Cart, error) {
	for {
		c := r.get(sessionID)
		err := c.Add(product, size, price, quantity)
		if errors.Is(err, errRetired) {
			// released between get and Add; the next get makes a new cart
			continue
		}
		return c, err
	}
}

// View is the session's cart contents; a session without a cart sees an empty one.
func (r *Registry) View(sessionID string) View {
	if c, ok := r.Lookup(sessionID); ok {
		return c.View()
	}
	return View{Lines: []model.CartLine{}, Total: decimal.Zero}
}

// Release forgets the session's cart if it is empty.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[sessionID]; ok && c.retireIfEmpty() {
		delete(r.carts, sessionID)
	}
}

func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[sessionID]; ok {
		c.Clear()
		c.retireIfEmpty()
		delete(r.carts, sessionID)
	}
}

// Expire drops carts untouched since before now-idle and reports how many went.
func (r *Registry) Expire(now time.Time, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, c := range r.carts {
		if now.Sub(c.idleSince()) < idle {
			continue
		}
		c.Clear()
		c.retireIfEmpty()
		delete(r.carts, id)
		n++
	}
	return n
}

// Sweep runs Expire every interval until ctx is done.
// A non-positive interval or idle disables sweeping.
func (r *Registry) Sweep(ctx context.Context, interval, idle time.Duration, onExpired func(n int)) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Expire(now, idle); n > 0 && onExpired != nil {
				onExpired(n)
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
