package repository

import (
    "context"
    "encoding/json"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

// CartRepo stores each customer's cart as a JSON list in Redis under
// cart:<customerID>.  Carts are session-scoped: every write refreshes
// the TTL and an idle cart simply expires.  Mutations go through
// Update, which runs the whole read-modify-write inside a WATCH
// transaction; a concurrent write to the same cart invalidates the
// EXEC and the mutation is replayed against the fresh state instead
// of overwriting it.
type CartRepo struct {
    rdb *redis.Client
    ttl time.Duration
}

// NewCartRepo returns a CartRepo using the given client and idle TTL.
func NewCartRepo(rdb *redis.Client, ttl time.Duration) *CartRepo {
    return &CartRepo{rdb: rdb, ttl: ttl}
}

func cartKey(customerID uint64) string {
    return "cart:" + strconv.FormatUint(customerID, 10)
}

// Load returns the customer's cart items.  A missing key is an empty
// cart, not an error.
func (r *CartRepo) Load(ctx context.Context, customerID uint64) ([]model.CartItem, error) {
    raw, err := r.rdb.Get(ctx, cartKey(customerID)).Bytes()
    if err == redis.Nil {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    var items []model.CartItem
    if err := json.Unmarshal(raw, &items); err != nil {
        return nil, err
    }
    return items, nil
}

// Update applies fn to the current cart and writes the result back,
// all under a WATCH on the key.  The GET happens after the WATCH is
// armed, so any write landing between the read and the SET fails the
// EXEC with redis.TxFailedErr and fn is replayed on the new contents.
// An error from fn aborts the transaction and is returned unchanged,
// letting typed service errors pass through.  A few retry rounds are
// enough in practice since carts see one writer per session.
func (r *CartRepo) Update(ctx context.Context, customerID uint64, fn func(items []model.CartItem) ([]model.CartItem, error)) error {
    key := cartKey(customerID)
    txn := func(tx *redis.Tx) error {
        raw, err := tx.Get(ctx, key).Bytes()
        if err != nil && err != redis.Nil {
            return err
        }
        var items []model.CartItem
        if err != redis.Nil {
            if err := json.Unmarshal(raw, &items); err != nil {
                return err
            }
        }
        next, err := fn(items)
        if err != nil {
            return err
        }
        out, err := json.Marshal(next)
        if err != nil {
            return err
        }
        _, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
            pipe.Set(ctx, key, out, r.ttl)
            return nil
        })
        return err
    }
    var lastErr error
    for i := 0; i < 3; i++ {
        lastErr = r.rdb.Watch(ctx, txn, key)
        if lastErr != redis.TxFailedErr {
            return lastErr
        }
    }
    return lastErr
}

// Clear removes the cart entirely.  Deleting an absent key is a no-op.
func (r *CartRepo) Clear(ctx context.Context, customerID uint64) error {
    return r.rdb.Del(ctx, cartKey(customerID)).Err()
}
