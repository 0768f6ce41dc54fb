package domain

// CheckoutResult reports a fully committed checkout: every line was
// decremented from stock and the cart was emptied.
type CheckoutResult struct {
	CartID string
	Lines  []CartLine
}
