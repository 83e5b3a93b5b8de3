package cart

import (
	"context"
	"fmt"
)

const (
	TaxRate       = 0.10
	ShippingPrice = 10.0
)

// Item is one aggregator entry: a product snapshot plus quantity.
type Item struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  uint    `json:"quantity"`
}

// Store is the durable slot the cart survives restarts in. Save receives
// the full entry set; Load returns the last saved snapshot exactly.
type Store interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
	Clear(ctx context.Context) error
}

// Cart keeps at most one entry per product id and persists the whole set
// after every mutation.
type Cart struct {
	store Store
	items []Item
}

func Load(ctx context.Context, store Store) (*Cart, error) {
	items, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cart: load snapshot: %w", err)
	}
	return &Cart{store: store, items: items}, nil
}

// Add merges by product id: an existing entry gets quantity+1, otherwise
// the product is appended with quantity 1. The returned flag reports
// whether it merged, so callers can emit the right notification.
func (c *Cart) Add(ctx context.Context, product Item) (bool, error) {
	for i := range c.items {
		if c.items[i].ProductID == product.ProductID {
			c.items[i].Quantity++
			return true, c.save(ctx)
		}
	}
	product.Quantity = 1
	c.items = append(c.items, product)
	return false, c.save(ctx)
}

// UpdateQuantity sets the entry's quantity exactly. A quantity of zero or
// less removes the entry.
func (c *Cart) UpdateQuantity(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		_, err := c.Remove(ctx, productID)
		return err
	}
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = uint(quantity)
			return c.save(ctx)
		}
	}
	return fmt.Errorf("cart: product %d not in cart", productID)
}

func (c *Cart) Remove(ctx context.Context, productID uint) (bool, error) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true, c.save(ctx)
		}
	}
	return false, nil
}

// Clear empties the set and erases the persisted state. Called only after
// a confirmed order placement.
func (c *Cart) Clear(ctx context.Context) error {
	c.items = nil
	return c.store.Clear(ctx)
}

func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (c *Cart) Count() uint {
	var n uint
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsInCart(productID uint) bool {
	_, ok := c.Item(productID)
	return ok
}

func (c *Cart) Item(productID uint) (Item, bool) {
	for _, it := range c.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// Items returns a copy of the entry set in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

type Totals struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Totals computes the checkout figures: subtotal, 10% tax, flat shipping.
func (c *Cart) Totals() Totals {
	items := c.TotalPrice()
	tax := items * TaxRate
	return Totals{
		ItemsPrice:    items,
		TaxPrice:      tax,
		ShippingPrice: ShippingPrice,
		TotalPrice:    items + tax + ShippingPrice,
	}
}

func (c *Cart) save(ctx context.Context) error {
	if err := c.store.Save(ctx, c.items); err != nil {
		return fmt.Errorf("cart: save snapshot: %w", err)
	}
	return nil
}
