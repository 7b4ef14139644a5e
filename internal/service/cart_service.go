package service

import (
    "context"
    "errors"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
)

// CartService manages each customer's pending purchase list.  Lines
// hold snapshots of title, author, price and image taken at add time;
// only stock is re-validated against the live catalog, both here and
// again at checkout.
type CartService struct {
    carts   CartStore
    books   BookStore
    taxRate float64
}

// NewCartService wires the cart manager.
func NewCartService(carts CartStore, books BookStore, taxRate float64) *CartService {
    if carts == nil || books == nil {
        panic("nil store passed to NewCartService")
    }
    return &CartService{carts: carts, books: books, taxRate: taxRate}
}

// AddItem merges quantity into an existing line for the book or
// appends a new snapshot line.  The combined quantity must not exceed
// current stock.
func (s *CartService) AddItem(ctx context.Context, customerID, bookID uint64, qty int) ([]model.CartItem, error) {
    if qty <= 0 {
        return nil, &InvalidArgumentError{Reason: "quantity must be positive"}
    }
    book, err := s.books.GetByID(ctx, bookID)
    if err != nil {
        if errors.Is(err, repository.ErrBookNotFound) {
            return nil, &NotFoundError{Entity: "book", ID: uintID(bookID)}
        }
        return nil, err
    }
    // The merge runs inside the store's critical section so a request
    // racing on the same cart sees the other's line instead of
    // clobbering it.
    var out []model.CartItem
    err = s.carts.Update(ctx, customerID, func(items []model.CartItem) ([]model.CartItem, error) {
        merged := false
        for i := range items {
            if items[i].BookID != bookID {
                continue
            }
            newQty := items[i].Quantity + qty
            if newQty > book.StockQuantity {
                return nil, &InsufficientStockError{
                    BookID:    book.ID,
                    Title:     book.Title,
                    Requested: newQty,
                    Available: book.StockQuantity,
                }
            }
            items[i].Quantity = newQty
            items[i].LineSubtotal = items[i].UnitPrice * float64(newQty)
            merged = true
            break
        }
        if !merged {
            if qty > book.StockQuantity {
                return nil, &InsufficientStockError{
                    BookID:    book.ID,
                    Title:     book.Title,
                    Requested: qty,
                    Available: book.StockQuantity,
                }
            }
            items = append(items, model.CartItem{
                BookID:       book.ID,
                Title:        book.Title,
                Author:       book.Author,
                UnitPrice:    book.UnitPrice,
                Quantity:     qty,
                LineSubtotal: book.UnitPrice * float64(qty),
                ImageRef:     book.ImageRef,
            })
        }
        out = items
        return items, nil
    })
    if err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateQuantity overwrites the quantity of an existing line.  A
// non-positive quantity is rejected rather than treated as removal;
// RemoveItem exists for that.
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, bookID uint64, qty int) ([]model.CartItem, error) {
    if qty <= 0 {
        return nil, &InvalidArgumentError{Reason: "quantity must be positive"}
    }
    book, err := s.books.GetByID(ctx, bookID)
    if err != nil {
        if errors.Is(err, repository.ErrBookNotFound) {
            return nil, &NotFoundError{Entity: "book", ID: uintID(bookID)}
        }
        return nil, err
    }
    if qty > book.StockQuantity {
        return nil, &InsufficientStockError{
            BookID:    book.ID,
            Title:     book.Title,
            Requested: qty,
            Available: book.StockQuantity,
        }
    }
    var out []model.CartItem
    err = s.carts.Update(ctx, customerID, func(items []model.CartItem) ([]model.CartItem, error) {
        for i := range items {
            if items[i].BookID == bookID {
                items[i].Quantity = qty
                items[i].LineSubtotal = items[i].UnitPrice * float64(qty)
                out = items
                return items, nil
            }
        }
        return nil, &NotFoundError{Entity: "cart item", ID: uintID(bookID)}
    })
    if err != nil {
        return nil, err
    }
    return out, nil
}

// RemoveItem drops the line for the book.  Removing an absent line is
// a no-op success.
func (s *CartService) RemoveItem(ctx context.Context, customerID, bookID uint64) ([]model.CartItem, error) {
    var out []model.CartItem
    err := s.carts.Update(ctx, customerID, func(items []model.CartItem) ([]model.CartItem, error) {
        kept := items[:0]
        for _, it := range items {
            if it.BookID != bookID {
                kept = append(kept, it)
            }
        }
        out = kept
        return kept, nil
    })
    if err != nil {
        return nil, err
    }
    return out, nil
}

// Clear empties the cart unconditionally.
func (s *CartService) Clear(ctx context.Context, customerID uint64) error {
    return s.carts.Clear(ctx, customerID)
}

// Items returns the current cart with its priced totals.
func (s *CartService) Items(ctx context.Context, customerID uint64) ([]model.CartItem, model.CartTotals, error) {
    items, err := s.carts.Load(ctx, customerID)
    if err != nil {
        return nil, model.CartTotals{}, err
    }
    return items, s.ComputeTotals(items), nil
}

// ComputeTotals derives subtotal, tax and total from the line
// subtotals.  Pure: no storage access, no side effects.
func (s *CartService) ComputeTotals(items []model.CartItem) model.CartTotals {
    var sub float64
    for _, it := range items {
        sub += it.LineSubtotal
    }
    tax := sub * s.taxRate
    return model.CartTotals{Subtotal: sub, Tax: tax, Total: sub + tax}
}

// CheckoutLines converts the cart into the order engine's requested
// lines.  Price snapshots are deliberately dropped: the engine
// re-snapshots from the live catalog at commit time.
func CheckoutLines(items []model.CartItem) []RequestedLine {
    lines := make([]RequestedLine, 0, len(items))
    for _, it := range items {
        lines = append(lines, RequestedLine{BookID: it.BookID, Quantity: it.Quantity})
    }
    return lines
}
