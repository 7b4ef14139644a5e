package service

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
)

// RequestedLine is one (book, quantity) pair of a checkout or staff
// sale before the catalog has been consulted.
type RequestedLine struct {
    BookID   uint64
    Quantity int
}

// CreateOrderRequest carries everything the engine needs to turn a
// cart or a staff sale form into an order.  Customer (and Staff for
// in-person sales) provide the snapshot data embedded in the order.
type CreateOrderRequest struct {
    Customer model.Customer
    Staff    *model.Staff
    Lines    []RequestedLine
    Channel  string
}

// CancelResult reports what a successful cancellation did.
type CancelResult struct {
    Record        model.CancellationRecord
    SkippedBooks  int // lines whose book no longer exists; stock not restored
    RestoredLines int
}

// OrderService is the order lifecycle engine: it creates sales with
// inventory decrement and tax computation, and cancels them within the
// time window with inventory restitution.
//
// Creation is two-phase.  A validation pass re-fetches every book and
// checks sufficiency without touching stock; only when all lines pass
// does the commit pass run the per-line conditional decrements.  A
// decrement can still lose a race against a concurrent checkout, in
// which case the already-reserved lines are compensated with
// increments and the whole operation fails; stock is never left
// partially taken.
type OrderService struct {
    books    BookStore
    orders   OrderStore
    cancels  CancellationStore
    tracking TrackingStore
    events   EventPublisher // optional; nil disables publishing

    taxRate float64
    window  time.Duration
    now     func() time.Time
}

// NewOrderService wires the engine.  taxRate is a fraction (0.16 for
// 16%); window is the cancellation window.
func NewOrderService(books BookStore, orders OrderStore, cancels CancellationStore,
    tracking TrackingStore, events EventPublisher, taxRate float64, window time.Duration) *OrderService {
    if books == nil || orders == nil || cancels == nil || tracking == nil {
        panic("nil store passed to NewOrderService")
    }
    return &OrderService{
        books:    books,
        orders:   orders,
        cancels:  cancels,
        tracking: tracking,
        events:   events,
        taxRate:  taxRate,
        window:   window,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// TaxRate returns the configured tax rate fraction.
func (s *OrderService) TaxRate() float64 { return s.taxRate }

// CreateOrder validates the requested lines against live stock,
// reserves the inventory, computes totals and persists the order.
// In-person sales complete immediately; online sales start pending and
// get a tracking record seeded with a system comment.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (model.Order, error) {
    var zero model.Order
    if req.Channel != model.ChannelInPerson && req.Channel != model.ChannelOnline {
        return zero, &InvalidArgumentError{Reason: "unknown sales channel: " + req.Channel}
    }
    if len(req.Lines) == 0 {
        return zero, &InvalidArgumentError{Reason: "order must contain at least one line"}
    }
    if req.Channel == model.ChannelInPerson && req.Staff == nil {
        return zero, &InvalidArgumentError{Reason: "in-person sales require a staff member"}
    }

    // Merge duplicate book ids so a book appears in at most one line.
    merged := make([]RequestedLine, 0, len(req.Lines))
    index := make(map[uint64]int)
    for _, l := range req.Lines {
        if l.Quantity <= 0 {
            return zero, &InvalidArgumentError{Reason: "quantity must be positive"}
        }
        if i, ok := index[l.BookID]; ok {
            merged[i].Quantity += l.Quantity
            continue
        }
        index[l.BookID] = len(merged)
        merged = append(merged, l)
    }

    // Validation pass: re-fetch every book and confirm sufficiency
    // before any stock moves.  Cart and form state may be stale, so
    // the check always runs against current catalog rows.
    lines := make([]model.OrderLine, 0, len(merged))
    for _, l := range merged {
        book, err := s.books.GetByID(ctx, l.BookID)
        if err != nil {
            if errors.Is(err, repository.ErrBookNotFound) {
                return zero, &NotFoundError{Entity: "book", ID: uintID(l.BookID)}
            }
            return zero, err
        }
        if book.StockQuantity < l.Quantity {
            return zero, &InsufficientStockError{
                BookID:    book.ID,
                Title:     book.Title,
                Requested: l.Quantity,
                Available: book.StockQuantity,
            }
        }
        lines = append(lines, model.OrderLine{
            BookID:       book.ID,
            Title:        book.Title,
            Author:       book.Author,
            Genre:        book.Genre,
            ISBN:         book.ISBN,
            Quantity:     l.Quantity,
            UnitPrice:    book.UnitPrice,
            LineSubtotal: book.UnitPrice * float64(l.Quantity),
        })
    }

    // Commit pass: conditional decrements.  Any failure rolls back the
    // decrements already taken.
    for i, l := range lines {
        if err := s.books.DecrementStock(ctx, l.BookID, l.Quantity); err != nil {
            s.rollbackDecrements(ctx, lines[:i])
            switch {
            case errors.Is(err, repository.ErrInsufficientStock):
                // Stock moved between validation and commit; report
                // with the freshest count we can get.
                avail := 0
                if b, gerr := s.books.GetByID(ctx, l.BookID); gerr == nil {
                    avail = b.StockQuantity
                }
                return zero, &InsufficientStockError{
                    BookID:    l.BookID,
                    Title:     l.Title,
                    Requested: l.Quantity,
                    Available: avail,
                }
            case errors.Is(err, repository.ErrBookNotFound):
                return zero, &NotFoundError{Entity: "book", ID: uintID(l.BookID)}
            default:
                return zero, err
            }
        }
    }

    subtotal := model.SumLines(lines)
    tax := subtotal * s.taxRate
    now := s.now()

    order := model.Order{
        Reference:     uuid.NewString(),
        CustomerID:    req.Customer.ID,
        CustomerName:  req.Customer.Name,
        CustomerEmail: req.Customer.Email,
        CustomerPhone: req.Customer.Phone,
        Lines:         lines,
        Subtotal:      subtotal,
        TaxAmount:     tax,
        Total:         subtotal + tax,
        Channel:       req.Channel,
        CreatedAt:     now,
    }
    if req.Channel == model.ChannelInPerson {
        order.Status = model.StatusCompleted
        order.StaffID = &req.Staff.ID
        order.StaffName = req.Staff.Name
    } else {
        order.Status = model.StatusPending
    }

    if err := s.orders.Create(ctx, &order); err != nil {
        // The reservation is undone so the copies return to sale.
        s.rollbackDecrements(ctx, lines)
        return zero, err
    }

    if req.Channel == model.ChannelOnline {
        t := model.TrackingRecord{
            OrderID:       order.ID,
            CustomerID:    order.CustomerID,
            CustomerName:  order.CustomerName,
            Status:        model.StatusPending,
            CreatedAt:     order.CreatedAt,
            LastUpdatedAt: order.CreatedAt,
            Comments: []model.TrackingComment{{
                Timestamp: order.CreatedAt,
                Message:   "Order received",
                Author:    "System",
            }},
        }
        if err := s.tracking.Create(ctx, &t); err != nil {
            // The order stands; tracking can be recreated lazily on
            // the first status update.
            log.Printf("order %d: tracking record creation failed: %v", order.ID, err)
        }
    }

    if s.events != nil {
        if err := s.events.OrderPlaced(ctx, order); err != nil {
            log.Printf("order %d: publish order.placed failed: %v", order.ID, err)
        }
    }
    return order, nil
}

// rollbackDecrements compensates already-committed decrements after a
// later line failed.  Failures here are logged, not returned: the
// caller is already propagating the original failure.
func (s *OrderService) rollbackDecrements(ctx context.Context, lines []model.OrderLine) {
    for _, l := range lines {
        if err := s.books.IncrementStock(ctx, l.BookID, l.Quantity); err != nil {
            log.Printf("rollback: restoring %d copies of book %d failed: %v", l.Quantity, l.BookID, err)
        }
    }
}

// CanCancel reports whether the order is still inside the cancellation
// window.  The boundary is exclusive: exactly window seconds after
// creation is already expired.
func (s *OrderService) CanCancel(o model.Order) bool {
    return s.now().Sub(o.CreatedAt) < s.window
}

// CancelOrder cancels an order within the window, restoring stock for
// every line and recording the cancellation.  The cancellation insert
// is the atomic claim: of two concurrent attempts exactly one wins and
// performs the restock.  Books deleted since the sale are skipped,
// since there is nothing to restore to, but each skip is logged and
// counted in the result rather than silently swallowed.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, actorID uint64, actorName, reason string) (CancelResult, error) {
    var res CancelResult
    order, err := s.orders.GetByID(ctx, orderID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return res, &NotFoundError{Entity: "order", ID: uintID(orderID)}
        }
        return res, err
    }

    if cancelled, err := s.cancels.Exists(ctx, orderID); err != nil {
        return res, err
    } else if cancelled {
        return res, &AlreadyCancelledError{OrderID: orderID}
    }

    if s.now().Sub(order.CreatedAt) >= s.window {
        return res, &WindowExpiredError{OrderID: orderID, Window: s.window}
    }

    if reason == "" {
        reason = "Cancellation requested by the customer"
    }
    rec := model.CancellationRecord{
        OrderID:         order.ID,
        CustomerID:      order.CustomerID,
        CustomerName:    order.CustomerName,
        OrderTotal:      order.Total,
        Reason:          reason,
        CancelledByID:   actorID,
        CancelledByName: actorName,
        CancelledAt:     s.now(),
        OrderCreatedAt:  order.CreatedAt,
    }

    // Claim first.  Whoever gets the unique insert does the restock;
    // the loser sees AlreadyCancelled and touches nothing.
    if err := s.cancels.Create(ctx, &rec); err != nil {
        if errors.Is(err, repository.ErrAlreadyCancelled) {
            return res, &AlreadyCancelledError{OrderID: orderID}
        }
        return res, err
    }

    for _, l := range order.Lines {
        err := s.books.IncrementStock(ctx, l.BookID, l.Quantity)
        switch {
        case err == nil:
            res.RestoredLines++
        case errors.Is(err, repository.ErrBookNotFound):
            res.SkippedBooks++
            log.Printf("cancel order %d: book %d (%q) no longer exists, %d copies not restored",
                order.ID, l.BookID, l.Title, l.Quantity)
        default:
            return res, err
        }
    }

    if err := s.orders.UpdateStatus(ctx, order.ID, model.StatusCancelled); err != nil {
        return res, err
    }
    order.Status = model.StatusCancelled

    if s.events != nil {
        if err := s.events.OrderCancelled(ctx, order, rec); err != nil {
            log.Printf("order %d: publish order.cancelled failed: %v", order.ID, err)
        }
    }
    res.Record = rec
    return res, nil
}
