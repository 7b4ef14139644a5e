package service

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/require"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

func newCartFixture(books ...model.Book) (*CartService, *fakeCartStore) {
    carts := newFakeCartStore()
    return NewCartService(carts, newFakeBookStore(books...), 0.16), carts
}

func TestCartAddMergesQuantities(t *testing.T) {
    svc, _ := newCartFixture(model.Book{ID: 1, Title: "Atlas", Author: "J. Reyes", UnitPrice: 20, StockQuantity: 10})
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 2)
    require.NoError(t, err)
    items, err := svc.AddItem(ctx, 7, 1, 3)
    require.NoError(t, err)

    require.Len(t, items, 1)
    require.Equal(t, 5, items[0].Quantity)
    require.Equal(t, 100.0, items[0].LineSubtotal)
    require.Equal(t, "Atlas", items[0].Title)
}

func TestCartAddRejectsOverStock(t *testing.T) {
    svc, _ := newCartFixture(model.Book{ID: 1, Title: "Atlas", UnitPrice: 20, StockQuantity: 4})
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 3)
    require.NoError(t, err)

    // 3 in the cart + 2 more exceeds the 4 on hand.
    _, err = svc.AddItem(ctx, 7, 1, 2)
    var ins *InsufficientStockError
    require.ErrorAs(t, err, &ins)
    require.Equal(t, 5, ins.Requested)
    require.Equal(t, 4, ins.Available)

    // The failed add must not have altered the stored cart.
    items, _, err := svc.Items(ctx, 7)
    require.NoError(t, err)
    require.Len(t, items, 1)
    require.Equal(t, 3, items[0].Quantity)
}

func TestCartAddKeepsConcurrentLine(t *testing.T) {
    svc, carts := newCartFixture(
        model.Book{ID: 1, Title: "Atlas", UnitPrice: 20, StockQuantity: 10},
        model.Book{ID: 2, Title: "Delta", UnitPrice: 15, StockQuantity: 10},
    )
    ctx := context.Background()

    // A second request for the same customer lands its line after this
    // add starts but before its mutation runs.  The mutation must see
    // that line, not overwrite it.
    carts.interleave = func(s *fakeCartStore) {
        s.carts[7] = append(s.carts[7], model.CartItem{
            BookID: 2, Title: "Delta", UnitPrice: 15, Quantity: 1, LineSubtotal: 15,
        })
    }

    items, err := svc.AddItem(ctx, 7, 1, 2)
    require.NoError(t, err)
    require.Len(t, items, 2)

    byBook := map[uint64]int{}
    for _, it := range items {
        byBook[it.BookID] = it.Quantity
    }
    require.Equal(t, 1, byBook[2])
    require.Equal(t, 2, byBook[1])

    stored, _, err := svc.Items(ctx, 7)
    require.NoError(t, err)
    require.Len(t, stored, 2)
}

func TestCartAddValidation(t *testing.T) {
    svc, _ := newCartFixture(model.Book{ID: 1, UnitPrice: 20, StockQuantity: 4})
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 0)
    var inv *InvalidArgumentError
    if !errors.As(err, &inv) {
        t.Fatalf("zero quantity: err = %v, want InvalidArgumentError", err)
    }
    _, err = svc.AddItem(ctx, 7, 99, 1)
    var nf *NotFoundError
    if !errors.As(err, &nf) {
        t.Fatalf("unknown book: err = %v, want NotFoundError", err)
    }
}

func TestCartUpdateQuantity(t *testing.T) {
    svc, _ := newCartFixture(model.Book{ID: 1, UnitPrice: 20, StockQuantity: 10})
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 2)
    require.NoError(t, err)

    items, err := svc.UpdateQuantity(ctx, 7, 1, 6)
    require.NoError(t, err)
    require.Equal(t, 6, items[0].Quantity)
    require.Equal(t, 120.0, items[0].LineSubtotal)

    _, err = svc.UpdateQuantity(ctx, 7, 1, 0)
    var inv *InvalidArgumentError
    require.ErrorAs(t, err, &inv)

    _, err = svc.UpdateQuantity(ctx, 7, 1, 11)
    var ins *InsufficientStockError
    require.ErrorAs(t, err, &ins)

    // Updating a line that is not in the cart.
    svc2, _ := newCartFixture(model.Book{ID: 2, UnitPrice: 5, StockQuantity: 5})
    _, err = svc2.UpdateQuantity(ctx, 7, 2, 1)
    var nf *NotFoundError
    require.ErrorAs(t, err, &nf)
}

func TestCartRemoveIsIdempotent(t *testing.T) {
    svc, _ := newCartFixture(model.Book{ID: 1, UnitPrice: 20, StockQuantity: 10})
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 2)
    require.NoError(t, err)

    items, err := svc.RemoveItem(ctx, 7, 1)
    require.NoError(t, err)
    require.Empty(t, items)

    // Removing again succeeds with no change.
    items, err = svc.RemoveItem(ctx, 7, 1)
    require.NoError(t, err)
    require.Empty(t, items)
}

func TestCartClear(t *testing.T) {
    svc, _ := newCartFixture(model.Book{ID: 1, UnitPrice: 20, StockQuantity: 10})
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 2)
    require.NoError(t, err)
    require.NoError(t, svc.Clear(ctx, 7))

    items, totals, err := svc.Items(ctx, 7)
    require.NoError(t, err)
    require.Empty(t, items)
    require.Equal(t, 0.0, totals.Total)
}

func TestCartTotals(t *testing.T) {
    svc, _ := newCartFixture(
        model.Book{ID: 1, UnitPrice: 50, StockQuantity: 10},
        model.Book{ID: 2, UnitPrice: 25, StockQuantity: 10},
    )
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 2) // 100
    require.NoError(t, err)
    _, err = svc.AddItem(ctx, 7, 2, 4) // 100
    require.NoError(t, err)

    _, totals, err := svc.Items(ctx, 7)
    require.NoError(t, err)
    require.Equal(t, 200.0, totals.Subtotal)
    require.Equal(t, 32.0, totals.Tax)
    require.Equal(t, 232.0, totals.Total)
}

func TestCheckoutLines(t *testing.T) {
    items := []model.CartItem{
        {BookID: 1, Quantity: 2, UnitPrice: 50},
        {BookID: 2, Quantity: 4, UnitPrice: 25},
    }
    lines := CheckoutLines(items)
    require.Len(t, lines, 2)
    require.Equal(t, RequestedLine{BookID: 1, Quantity: 2}, lines[0])
    require.Equal(t, RequestedLine{BookID: 2, Quantity: 4}, lines[1])
}

func TestCartsAreIsolatedPerCustomer(t *testing.T) {
    svc, _ := newCartFixture(model.Book{ID: 1, UnitPrice: 20, StockQuantity: 10})
    ctx := context.Background()

    _, err := svc.AddItem(ctx, 7, 1, 2)
    require.NoError(t, err)

    items, _, err := svc.Items(ctx, 8)
    require.NoError(t, err)
    require.Empty(t, items)
}
