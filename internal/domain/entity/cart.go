package entity

import "errors"

type CartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"image_url"`
}

// Cart mirrors the server-side cart. An empty ID means the server has not
// created the cart yet; Version is meaningful only alongside a non-empty ID.
// An item with Quantity 0 is a removal tombstone awaiting reconciliation,
// not an absent item.
type Cart struct {
	ID      string     `json:"id"`
	Version int64      `json:"version"`
	Items   []CartItem `json:"items"`
}

func NewCart() *Cart {
	return &Cart{Items: make([]CartItem, 0)}
}

func (c *Cart) item(productID string) (*CartItem, int) {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return &c.Items[i], i
		}
	}
	return nil, -1
}

// AddItem increments the quantity of an existing item by one, or appends the
// product with quantity 1.
func (c *Cart) AddItem(product Product) error {
	if product.ID == "" {
		return errors.New("product ID cannot be empty for cart item")
	}

	item, _ := c.item(product.ID)
	if item != nil {
		item.Quantity++
		return nil
	}
	c.Items = append(c.Items, CartItem{
		ID:       product.ID,
		Title:    product.Title,
		Price:    product.Price,
		Quantity: 1,
		ImageURL: product.ImageURL,
	})
	return nil
}

// SetQuantity sets the exact quantity for an item. A quantity of zero or less
// tombstones the item for removal.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	item, _ := c.item(productID)
	if item == nil {
		return errors.New("item not found in cart")
	}
	if quantity < 0 {
		quantity = 0
	}
	item.Quantity = quantity
	return nil
}

// RemoveItem tombstones the item: its quantity becomes zero and the server's
// next response is expected to omit it.
func (c *Cart) RemoveItem(productID string) error {
	return c.SetQuantity(productID, 0)
}

func (c Cart) TotalQuantity() int {
	var total int
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// HasServerCart reports whether the server has acknowledged this cart at
// least once.
func (c Cart) HasServerCart() bool {
	return c.ID != ""
}

// Snapshot returns a deep copy safe to hand out across goroutines.
func (c Cart) Snapshot() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{ID: c.ID, Version: c.Version, Items: items}
}

// Reset drops the mirror back to the "no server cart" state.
func (c *Cart) Reset() {
	c.ID = ""
	c.Version = 0
	c.Items = make([]CartItem, 0)
}
