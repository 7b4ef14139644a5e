package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

func newTestCartRepo(t *testing.T) (*CartRepo, *redis.Client) {
    t.Helper()
    srv := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return NewCartRepo(rdb, time.Hour), rdb
}

func TestCartRepoLoadMissingIsEmpty(t *testing.T) {
    repo, _ := newTestCartRepo(t)
    items, err := repo.Load(context.Background(), 7)
    require.NoError(t, err)
    require.Empty(t, items)
}

func TestCartRepoUpdateRoundTrip(t *testing.T) {
    repo, _ := newTestCartRepo(t)
    ctx := context.Background()

    err := repo.Update(ctx, 7, func(items []model.CartItem) ([]model.CartItem, error) {
        require.Empty(t, items)
        return append(items, model.CartItem{BookID: 1, Title: "Atlas", Quantity: 2}), nil
    })
    require.NoError(t, err)

    items, err := repo.Load(ctx, 7)
    require.NoError(t, err)
    require.Len(t, items, 1)
    require.Equal(t, uint64(1), items[0].BookID)
    require.Equal(t, 2, items[0].Quantity)
}

func TestCartRepoUpdatePropagatesMutationError(t *testing.T) {
    repo, _ := newTestCartRepo(t)
    ctx := context.Background()

    sentinel := errors.New("line rejected")
    err := repo.Update(ctx, 7, func([]model.CartItem) ([]model.CartItem, error) {
        return nil, sentinel
    })
    require.ErrorIs(t, err, sentinel)

    items, err := repo.Load(ctx, 7)
    require.NoError(t, err)
    require.Empty(t, items)
}

// A write landing between Update's read and its write must not be
// lost: the transaction fails, the mutation replays against the fresh
// cart, and both lines survive.
func TestCartRepoUpdateRetriesOverConcurrentWrite(t *testing.T) {
    repo, _ := newTestCartRepo(t)
    ctx := context.Background()

    require.NoError(t, repo.Update(ctx, 7, func(items []model.CartItem) ([]model.CartItem, error) {
        return append(items, model.CartItem{BookID: 1, Title: "Atlas", Quantity: 2}), nil
    }))

    calls := 0
    err := repo.Update(ctx, 7, func(items []model.CartItem) ([]model.CartItem, error) {
        calls++
        if calls == 1 {
            // Another session adds book 2 while this update is mid
            // flight.  The inner write arms the WATCH conflict.
            require.NoError(t, repo.Update(ctx, 7, func(inner []model.CartItem) ([]model.CartItem, error) {
                return append(inner, model.CartItem{BookID: 2, Title: "Delta", Quantity: 1}), nil
            }))
        }
        return append(items, model.CartItem{BookID: 3, Title: "Vega", Quantity: 1}), nil
    })
    require.NoError(t, err)
    require.Equal(t, 2, calls)

    items, err := repo.Load(ctx, 7)
    require.NoError(t, err)
    require.Len(t, items, 3)
    seen := map[uint64]bool{}
    for _, it := range items {
        seen[it.BookID] = true
    }
    require.True(t, seen[1] && seen[2] && seen[3])
}

func TestCartRepoClear(t *testing.T) {
    repo, _ := newTestCartRepo(t)
    ctx := context.Background()

    require.NoError(t, repo.Update(ctx, 7, func(items []model.CartItem) ([]model.CartItem, error) {
        return append(items, model.CartItem{BookID: 1, Quantity: 1}), nil
    }))
    require.NoError(t, repo.Clear(ctx, 7))
    items, err := repo.Load(ctx, 7)
    require.NoError(t, err)
    require.Empty(t, items)

    // Clearing an absent cart is a no-op.
    require.NoError(t, repo.Clear(ctx, 7))
}
