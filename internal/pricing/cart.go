package pricing

// LineItem is one cart entry: a plant snapshot taken at cart-read time plus
// a quantity. Later catalog price changes must not alter an existing cart's
// computed totals, so the price and category live on the item itself.
type LineItem struct {
	PlantID   string
	Name      string
	UnitPrice Money
	Category  string // empty when the plant has no category
	Qty       int
}

// Cart is an ordered sequence of line items.
type Cart struct {
	Items []LineItem
}

// TotalQuantity sums quantities across all line items.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Qty
	}
	return total
}

// SubtotalCents sums unit price times quantity across all line items.
// Non-positive quantities are skipped defensively; the upstream collaborator
// rejects them before a cart reaches the engine.
func (c Cart) SubtotalCents() Money {
	var subtotal Money
	for _, it := range c.Items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += it.UnitPrice * Money(it.Qty)
	}
	return subtotal
}

// Shopper is the loyalty context of the acting user. A nil *Shopper means an
// anonymous caller; an unrecognised tier simply makes the loyalty rule
// ineligible.
type Shopper struct {
	ID          string
	LoyaltyTier string
}
