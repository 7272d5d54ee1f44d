// Package cart manages the storefront shopping cart: merge-by-product adds,
// quantity edits, and the shipping rule. Contents persist through the local
// store under a single JSON document, like the original localStorage layout.
package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vendaria/vendaria/internal/storefront/localstore"
	"github.com/vendaria/vendaria/internal/storefront/session"
)

// storeKey is the localstore key holding the cart JSON array.
const storeKey = "cart"

// Shipping rule: orders at or above the threshold ship free, everything
// else pays the flat rate.
const (
	FreeShippingThreshold = 399.0
	FlatShippingRate      = 100.0
)

// ErrNotLoggedIn is returned when a cart mutation needs an active session.
var ErrNotLoggedIn = errors.New("log in to add products to the cart")

// Item is one cart line: a product snapshot plus a quantity.
type Item struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Thumbnail string  `json:"thumbnail"`
	Quantity  int     `json:"quantity"`
}

// Summary is the cart's money breakdown.
type Summary struct {
	Subtotal float64
	Shipping float64
	Total    float64
}

// Cart reads and mutates the persisted shopping cart.
type Cart struct {
	store   localstore.Store
	session *session.Manager
}

// New creates a cart over the given store, gated on the given session.
func New(store localstore.Store, sess *session.Manager) *Cart {
	return &Cart{store: store, session: sess}
}

// Items returns the current cart lines. An absent or empty document is an
// empty cart.
func (c *Cart) Items(ctx context.Context) ([]Item, error) {
	raw, ok, err := c.store.Get(ctx, storeKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add puts a product in the cart. A product already present gets its
// quantity bumped instead of a duplicate line. Requires an active session.
func (c *Cart) Add(ctx context.Context, item Item) error {
	if c.session.State() != session.Active {
		return ErrNotLoggedIn
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	items, err := c.Items(ctx)
	if err != nil {
		return err
	}

	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	return c.save(ctx, items)
}

// Remove drops a product from the cart entirely.
func (c *Cart) Remove(ctx context.Context, productID int64) error {
	items, err := c.Items(ctx)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	return c.save(ctx, kept)
}

// SetQuantity changes a line's quantity. Zero or negative removes the line.
func (c *Cart) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return c.Remove(ctx, productID)
	}

	items, err := c.Items(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == productID {
			items[i].Quantity = quantity
			break
		}
	}
	return c.save(ctx, items)
}

// Clear empties the cart, e.g. after a completed checkout.
func (c *Cart) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, storeKey)
}

// Summarize computes subtotal, shipping, and total for the current cart.
func (c *Cart) Summarize(ctx context.Context) (Summary, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}

// Summarize computes the money breakdown for a set of lines.
func Summarize(items []Item) Summary {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}

	shipping := FlatShippingRate
	if subtotal >= FreeShippingThreshold || subtotal == 0 {
		shipping = 0
	}

	return Summary{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}

func (c *Cart) save(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, storeKey, string(raw))
}
