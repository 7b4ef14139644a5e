package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

var testBase = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testCustomer() model.Customer {
    return model.Customer{ID: 7, Name: "Nora Klein", Email: "nora@example.com", Phone: "555-0101"}
}

func testStaff() model.Staff {
    return model.Staff{ID: 3, Name: "Sam Ortiz", Role: "STAFF"}
}

type engineFixture struct {
    books    *fakeBookStore
    orders   *fakeOrderStore
    cancels  *fakeCancellationStore
    tracking *fakeTrackingStore
    events   *recordingPublisher
    svc      *OrderService
}

func newEngineFixture(books ...model.Book) *engineFixture {
    f := &engineFixture{
        books:    newFakeBookStore(books...),
        orders:   newFakeOrderStore(),
        cancels:  newFakeCancellationStore(),
        tracking: newFakeTrackingStore(),
        events:   &recordingPublisher{},
    }
    f.svc = NewOrderService(f.books, f.orders, f.cancels, f.tracking, f.events, 0.16, 900*time.Second)
    f.svc.now = func() time.Time { return testBase }
    return f
}

func TestCreateOrderOnlineTotalsAndStock(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, Title: "The Sea Wall", UnitPrice: 100, StockQuantity: 10})

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 2}},
        Channel:  model.ChannelOnline,
    })
    require.NoError(t, err)

    require.Equal(t, 200.0, order.Subtotal)
    require.Equal(t, 32.0, order.TaxAmount)
    require.Equal(t, 232.0, order.Total)
    require.Equal(t, model.StatusPending, order.Status)
    require.NotEmpty(t, order.Reference)
    require.Nil(t, order.StaffID)

    if got := f.books.stock(1); got != 8 {
        t.Errorf("stock after sale = %d, want 8", got)
    }
    if len(f.events.placed) != 1 {
        t.Errorf("placed events = %d, want 1", len(f.events.placed))
    }

    // Online orders get an eager tracking record seeded with the
    // system comment.
    tr, err := f.tracking.GetByOrderID(context.Background(), order.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusPending, tr.Status)
    require.Len(t, tr.Comments, 1)
    require.Equal(t, "Order received", tr.Comments[0].Message)
    require.Equal(t, "System", tr.Comments[0].Author)
    require.Equal(t, order.CreatedAt, tr.CreatedAt)
}

func TestCreateOrderInPersonCompletesImmediately(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, Title: "Night Trains", UnitPrice: 25, StockQuantity: 4})
    staff := testStaff()

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Staff:    &staff,
        Lines:    []RequestedLine{{BookID: 1, Quantity: 1}},
        Channel:  model.ChannelInPerson,
    })
    require.NoError(t, err)
    require.Equal(t, model.StatusCompleted, order.Status)
    require.NotNil(t, order.StaffID)
    require.Equal(t, staff.ID, *order.StaffID)
    require.Equal(t, staff.Name, order.StaffName)

    // No tracking record for counter sales.
    if _, err := f.tracking.GetByOrderID(context.Background(), order.ID); err == nil {
        t.Error("in-person sale got a tracking record")
    }
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, Title: "Atlas", UnitPrice: 10, StockQuantity: 10})

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 2}, {BookID: 1, Quantity: 3}},
        Channel:  model.ChannelOnline,
    })
    require.NoError(t, err)
    require.Len(t, order.Lines, 1)
    require.Equal(t, 5, order.Lines[0].Quantity)
    require.Equal(t, 50.0, order.Lines[0].LineSubtotal)
    require.Equal(t, 5, f.books.stock(1))
}

func TestCreateOrderValidation(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, UnitPrice: 10, StockQuantity: 5})
    cust := testCustomer()

    cases := []struct {
        name string
        req  CreateOrderRequest
    }{
        {"unknown channel", CreateOrderRequest{Customer: cust, Lines: []RequestedLine{{BookID: 1, Quantity: 1}}, Channel: "phone"}},
        {"no lines", CreateOrderRequest{Customer: cust, Channel: model.ChannelOnline}},
        {"zero quantity", CreateOrderRequest{Customer: cust, Lines: []RequestedLine{{BookID: 1, Quantity: 0}}, Channel: model.ChannelOnline}},
        {"in-person without staff", CreateOrderRequest{Customer: cust, Lines: []RequestedLine{{BookID: 1, Quantity: 1}}, Channel: model.ChannelInPerson}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, err := f.svc.CreateOrder(context.Background(), tc.req)
            var inv *InvalidArgumentError
            if !errors.As(err, &inv) {
                t.Fatalf("err = %v, want InvalidArgumentError", err)
            }
        })
    }
    // Nothing above may have touched stock.
    require.Equal(t, 5, f.books.stock(1))
}

func TestCreateOrderInsufficientStockLeavesOthersUntouched(t *testing.T) {
    f := newEngineFixture(
        model.Book{ID: 1, Title: "Scarce", UnitPrice: 10, StockQuantity: 1},
        model.Book{ID: 2, Title: "Plenty", UnitPrice: 10, StockQuantity: 10},
    )

    _, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 2, Quantity: 3}, {BookID: 1, Quantity: 2}},
        Channel:  model.ChannelOnline,
    })
    var ins *InsufficientStockError
    require.ErrorAs(t, err, &ins)
    require.Equal(t, uint64(1), ins.BookID)
    require.Equal(t, 2, ins.Requested)
    require.Equal(t, 1, ins.Available)

    // Validation failed before any decrement, so both counters stand.
    require.Equal(t, 1, f.books.stock(1))
    require.Equal(t, 10, f.books.stock(2))
}

func TestCreateOrderCommitRaceRollsBack(t *testing.T) {
    f := newEngineFixture(
        model.Book{ID: 1, Title: "First", UnitPrice: 10, StockQuantity: 5},
        model.Book{ID: 2, Title: "Second", UnitPrice: 10, StockQuantity: 5},
    )
    // Validation sees enough stock for book 2 but the decrement loses
    // the race.
    f.books.failDecrementFor[2] = true

    _, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 2}, {BookID: 2, Quantity: 2}},
        Channel:  model.ChannelOnline,
    })
    var ins *InsufficientStockError
    require.ErrorAs(t, err, &ins)

    // Book 1 was decremented then compensated.
    require.Equal(t, 5, f.books.stock(1))
    require.Equal(t, 5, f.books.stock(2))
    require.Empty(t, f.events.placed)
}

func TestCreateOrderPersistFailureRestoresStock(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, UnitPrice: 10, StockQuantity: 5})
    f.orders.createErr = errors.New("boom")

    _, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 2}},
        Channel:  model.ChannelOnline,
    })
    require.Error(t, err)
    require.Equal(t, 5, f.books.stock(1))
}

func TestCancelOrderRestoresStock(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, Title: "The Sea Wall", UnitPrice: 100, StockQuantity: 10})

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 2}},
        Channel:  model.ChannelOnline,
    })
    require.NoError(t, err)
    require.Equal(t, 8, f.books.stock(1))

    // Five minutes later, well inside the window.
    f.svc.now = func() time.Time { return testBase.Add(5 * time.Minute) }

    res, err := f.svc.CancelOrder(context.Background(), order.ID, 7, "Nora Klein", "changed my mind")
    require.NoError(t, err)
    require.Equal(t, 10, f.books.stock(1))
    require.Equal(t, 1, res.RestoredLines)
    require.Equal(t, 0, res.SkippedBooks)
    require.Equal(t, "changed my mind", res.Record.Reason)
    require.Equal(t, order.Total, res.Record.OrderTotal)

    got, err := f.orders.GetByID(context.Background(), order.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusCancelled, got.Status)
    require.Len(t, f.events.cancelled, 1)
}

func TestCancelOrderWindowBoundary(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, UnitPrice: 10, StockQuantity: 10})

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 1}},
        Channel:  model.ChannelOnline,
    })
    require.NoError(t, err)

    // 899 seconds in: still allowed.
    f.svc.now = func() time.Time { return testBase.Add(899 * time.Second) }
    if !f.svc.CanCancel(order) {
        t.Fatal("CanCancel = false at 899s, want true")
    }

    // Exactly 900 seconds: expired.  The boundary is exclusive.
    f.svc.now = func() time.Time { return testBase.Add(900 * time.Second) }
    if f.svc.CanCancel(order) {
        t.Fatal("CanCancel = true at 900s, want false")
    }
    _, err = f.svc.CancelOrder(context.Background(), order.ID, 7, "Nora Klein", "")
    var we *WindowExpiredError
    require.ErrorAs(t, err, &we)
    require.Equal(t, 9, f.books.stock(1))
}

func TestCancelOrderTwiceRestocksOnce(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, UnitPrice: 10, StockQuantity: 10})

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 3}},
        Channel:  model.ChannelOnline,
    })
    require.NoError(t, err)

    _, err = f.svc.CancelOrder(context.Background(), order.ID, 7, "Nora Klein", "")
    require.NoError(t, err)

    _, err = f.svc.CancelOrder(context.Background(), order.ID, 7, "Nora Klein", "")
    var ac *AlreadyCancelledError
    require.ErrorAs(t, err, &ac)

    require.Equal(t, 10, f.books.stock(1))
    require.Equal(t, 1, f.cancels.count())
}

func TestCancelOrderSkipsDeletedBooks(t *testing.T) {
    f := newEngineFixture(
        model.Book{ID: 1, Title: "Kept", UnitPrice: 10, StockQuantity: 5},
        model.Book{ID: 2, Title: "Doomed", UnitPrice: 10, StockQuantity: 5},
    )

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 1}, {BookID: 2, Quantity: 2}},
        Channel:  model.ChannelOnline,
    })
    require.NoError(t, err)

    // The catalog entry disappears between sale and cancellation.
    f.books.remove(2)

    res, err := f.svc.CancelOrder(context.Background(), order.ID, 7, "Nora Klein", "")
    require.NoError(t, err)
    require.Equal(t, 1, res.RestoredLines)
    require.Equal(t, 1, res.SkippedBooks)
    require.Equal(t, 5, f.books.stock(1))
}

func TestCancelOrderUnknownOrder(t *testing.T) {
    f := newEngineFixture()
    _, err := f.svc.CancelOrder(context.Background(), 99, 7, "Nora Klein", "")
    var nf *NotFoundError
    require.ErrorAs(t, err, &nf)
}

func TestCancelOrderDefaultReason(t *testing.T) {
    f := newEngineFixture(model.Book{ID: 1, UnitPrice: 10, StockQuantity: 5})

    order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
        Customer: testCustomer(),
        Lines:    []RequestedLine{{BookID: 1, Quantity: 1}},
        Channel:  model.ChannelOnline,
    })
    require.NoError(t, err)

    res, err := f.svc.CancelOrder(context.Background(), order.ID, 7, "Nora Klein", "")
    require.NoError(t, err)
    require.Equal(t, "Cancellation requested by the customer", res.Record.Reason)
}
