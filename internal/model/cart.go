package model

// CartItem is one line of a customer's cart.  Title, author, price and
// image are snapshots taken when the line was added; they are not
// refreshed when the catalog changes.  Stock is re-validated against
// the live book at checkout, so a stale snapshot can never oversell.
//
// Invariant: Quantity > 0.  An update that would take the quantity to
// zero or below removes the line instead.
type CartItem struct {
    BookID       uint64  `json:"book_id"`
    Title        string  `json:"title"`
    Author       string  `json:"author"`
    UnitPrice    float64 `json:"unit_price"`
    Quantity     int     `json:"quantity"`
    LineSubtotal float64 `json:"line_subtotal"`
    ImageRef     string  `json:"image_ref"`
}

// CartTotals is the priced view of a cart.  Tax is computed from the
// subtotal at the configured rate; Total = Subtotal + Tax.
type CartTotals struct {
    Subtotal float64 `json:"subtotal"`
    Tax      float64 `json:"tax"`
    Total    float64 `json:"total"`
}
