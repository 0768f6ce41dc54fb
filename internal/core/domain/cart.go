package domain

import "sort"

// Cart holds a user's intended purchases. A user owns at most one cart
// and a product appears in at most one line. Lines never carry a
// quantity below one; mutations that would produce one remove the line
// instead.
type Cart struct {
	ID      string
	OwnerID string
	Lines   map[int64]int // productID -> quantity
}

type CartLine struct {
	ProductID int64
	Quantity  int
}

func NewCart(id, ownerID string) *Cart {
	return &Cart{
		ID:      id,
		OwnerID: ownerID,
		Lines:   make(map[int64]int),
	}
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Add merges quantity into an existing line for productID, or creates
// the line. quantity must already be validated as positive.
func (c *Cart) Add(productID int64, quantity int) {
	c.Lines[productID] += quantity
}

// Set overwrites the line quantity. A quantity of zero or below removes
// the line. Returns false if no line for productID exists.
func (c *Cart) Set(productID int64, quantity int) bool {
	if _, ok := c.Lines[productID]; !ok {
		return false
	}
	if quantity <= 0 {
		delete(c.Lines, productID)
		return true
	}
	c.Lines[productID] = quantity
	return true
}

// Remove deletes the line for productID. Removing an absent line is a
// no-op.
func (c *Cart) Remove(productID int64) {
	delete(c.Lines, productID)
}

func (c *Cart) Clear() {
	c.Lines = make(map[int64]int)
}

// SortedLines returns the cart's lines ordered by ascending product ID.
// Checkout relies on this fixed order when touching stock records so
// that overlapping checkouts can never wait on each other in a cycle.
func (c *Cart) SortedLines() []CartLine {
	lines := make([]CartLine, 0, len(c.Lines))
	for productID, quantity := range c.Lines {
		lines = append(lines, CartLine{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID < lines[j].ProductID
	})
	return lines
}

// Clone returns a deep copy. Adapters that hand out carts from shared
// state return clones so callers never alias live storage.
func (c *Cart) Clone() *Cart {
	cp := NewCart(c.ID, c.OwnerID)
	for productID, quantity := range c.Lines {
		cp.Lines[productID] = quantity
	}
	return cp
}
