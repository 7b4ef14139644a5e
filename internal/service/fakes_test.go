package service

import (
    "context"
    "sync"
    "time"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
)

// In-memory stores implementing the service interfaces.  They mirror
// the repository semantics: conditional decrement, unique cancellation
// insert, sentinel errors.

type fakeBookStore struct {
    mu    sync.Mutex
    books map[uint64]model.Book

    failDecrementFor map[uint64]bool // force a commit-time race on these ids
}

func newFakeBookStore(books ...model.Book) *fakeBookStore {
    s := &fakeBookStore{books: make(map[uint64]model.Book), failDecrementFor: make(map[uint64]bool)}
    for _, b := range books {
        s.books[b.ID] = b
    }
    return s
}

func (s *fakeBookStore) GetByID(_ context.Context, id uint64) (model.Book, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.books[id]
    if !ok {
        return model.Book{}, repository.ErrBookNotFound
    }
    return b, nil
}

func (s *fakeBookStore) DecrementStock(_ context.Context, id uint64, qty int) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.books[id]
    if !ok {
        return repository.ErrBookNotFound
    }
    if s.failDecrementFor[id] || b.StockQuantity < qty {
        return repository.ErrInsufficientStock
    }
    b.StockQuantity -= qty
    s.books[id] = b
    return nil
}

func (s *fakeBookStore) IncrementStock(_ context.Context, id uint64, qty int) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.books[id]
    if !ok {
        return repository.ErrBookNotFound
    }
    b.StockQuantity += qty
    s.books[id] = b
    return nil
}

func (s *fakeBookStore) stock(id uint64) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.books[id].StockQuantity
}

func (s *fakeBookStore) remove(id uint64) {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.books, id)
}

type fakeOrderStore struct {
    mu     sync.Mutex
    nextID uint64
    orders map[uint64]model.Order

    createErr error
}

func newFakeOrderStore() *fakeOrderStore {
    return &fakeOrderStore{nextID: 1, orders: make(map[uint64]model.Order)}
}

func (s *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.createErr != nil {
        return s.createErr
    }
    o.ID = s.nextID
    s.nextID++
    s.orders[o.ID] = *o
    return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id uint64) (model.Order, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    o, ok := s.orders[id]
    if !ok {
        return model.Order{}, repository.ErrOrderNotFound
    }
    return o, nil
}

func (s *fakeOrderStore) UpdateStatus(_ context.Context, orderID uint64, status string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    o, ok := s.orders[orderID]
    if !ok {
        return repository.ErrOrderNotFound
    }
    o.Status = status
    s.orders[orderID] = o
    return nil
}

func (s *fakeOrderStore) put(o model.Order) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if o.ID >= s.nextID {
        s.nextID = o.ID + 1
    }
    s.orders[o.ID] = o
}

type fakeCancellationStore struct {
    mu      sync.Mutex
    records map[uint64]model.CancellationRecord
}

func newFakeCancellationStore() *fakeCancellationStore {
    return &fakeCancellationStore{records: make(map[uint64]model.CancellationRecord)}
}

func (s *fakeCancellationStore) Create(_ context.Context, c *model.CancellationRecord) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.records[c.OrderID]; ok {
        return repository.ErrAlreadyCancelled
    }
    s.records[c.OrderID] = *c
    return nil
}

func (s *fakeCancellationStore) Exists(_ context.Context, orderID uint64) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    _, ok := s.records[orderID]
    return ok, nil
}

func (s *fakeCancellationStore) count() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.records)
}

type fakeTrackingStore struct {
    mu      sync.Mutex
    records map[uint64]model.TrackingRecord
}

func newFakeTrackingStore() *fakeTrackingStore {
    return &fakeTrackingStore{records: make(map[uint64]model.TrackingRecord)}
}

func (s *fakeTrackingStore) Create(_ context.Context, t *model.TrackingRecord) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.records[t.OrderID] = *t
    return nil
}

func (s *fakeTrackingStore) GetByOrderID(_ context.Context, orderID uint64) (model.TrackingRecord, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    t, ok := s.records[orderID]
    if !ok {
        return model.TrackingRecord{}, repository.ErrTrackingNotFound
    }
    return t, nil
}

func (s *fakeTrackingStore) UpdateStatus(_ context.Context, orderID uint64, status string, updatedAt time.Time) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    t, ok := s.records[orderID]
    if !ok {
        return repository.ErrTrackingNotFound
    }
    t.Status = status
    t.LastUpdatedAt = updatedAt
    s.records[orderID] = t
    return nil
}

func (s *fakeTrackingStore) AppendComment(_ context.Context, orderID uint64, c model.TrackingComment) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    t, ok := s.records[orderID]
    if !ok {
        return repository.ErrTrackingNotFound
    }
    t.Comments = append(t.Comments, c)
    s.records[orderID] = t
    return nil
}

// fakeCartStore mirrors the Redis cart repository's contract: Update
// runs the mutation as a critical section over the stored items.  The
// optional interleave hook fires once inside Update before fn runs,
// standing in for a concurrent request that wrote the cart first; it
// runs with the lock held and mutates carts directly.
type fakeCartStore struct {
    mu         sync.Mutex
    carts      map[uint64][]model.CartItem
    interleave func(s *fakeCartStore)
}

func newFakeCartStore() *fakeCartStore {
    return &fakeCartStore{carts: make(map[uint64][]model.CartItem)}
}

func (s *fakeCartStore) Load(_ context.Context, customerID uint64) ([]model.CartItem, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    items := s.carts[customerID]
    out := make([]model.CartItem, len(items))
    copy(out, items)
    return out, nil
}

func (s *fakeCartStore) Update(_ context.Context, customerID uint64, fn func(items []model.CartItem) ([]model.CartItem, error)) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.interleave != nil {
        hook := s.interleave
        s.interleave = nil
        hook(s)
    }
    cur := make([]model.CartItem, len(s.carts[customerID]))
    copy(cur, s.carts[customerID])
    next, err := fn(cur)
    if err != nil {
        return err
    }
    saved := make([]model.CartItem, len(next))
    copy(saved, next)
    s.carts[customerID] = saved
    return nil
}

func (s *fakeCartStore) Clear(_ context.Context, customerID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.carts, customerID)
    return nil
}

// recordingPublisher counts events instead of talking to a broker.
type recordingPublisher struct {
    mu        sync.Mutex
    placed    []model.Order
    cancelled []model.Order
}

func (p *recordingPublisher) OrderPlaced(_ context.Context, o model.Order) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.placed = append(p.placed, o)
    return nil
}

func (p *recordingPublisher) OrderCancelled(_ context.Context, o model.Order, _ model.CancellationRecord) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.cancelled = append(p.cancelled, o)
    return nil
}
