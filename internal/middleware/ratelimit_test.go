package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/bookstore-orders/internal/utils"
)

const testSecret = "test-secret"

func newLimitedEcho(t *testing.T, perMin int) (*echo.Echo, *redis.Client) {
    t.Helper()
    srv := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    e := echo.New()
    ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
    e.GET("/open", ok, RateLimit(rdb, perMin))
    e.GET("/auth", ok, JWTAuth(testSecret), RateLimit(rdb, perMin))
    return e, rdb
}

func do(e *echo.Echo, path, addr, bearer string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, path, nil)
    req.RemoteAddr = addr
    if bearer != "" {
        req.Header.Set("Authorization", "Bearer "+bearer)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestRateLimitKeysByAccountBehindAuth(t *testing.T) {
    e, _ := newLimitedEcho(t, 2)

    alice, err := utils.NewAccessToken(testSecret, 41, "CUSTOMER", 5)
    require.NoError(t, err)
    bob, err := utils.NewAccessToken(testSecret, 42, "CUSTOMER", 5)
    require.NoError(t, err)

    // Both accounts share an address; the budget must not.
    const addr = "10.0.0.9:1234"
    for i := 0; i < 2; i++ {
        require.Equal(t, http.StatusOK, do(e, "/auth", addr, alice.Token).Code)
    }
    rec := do(e, "/auth", addr, alice.Token)
    require.Equal(t, http.StatusTooManyRequests, rec.Code)
    require.Equal(t, "60", rec.Header().Get("Retry-After"))

    require.Equal(t, http.StatusOK, do(e, "/auth", addr, bob.Token).Code)
}

func TestRateLimitKeysGuestsByAddress(t *testing.T) {
    e, _ := newLimitedEcho(t, 2)

    for i := 0; i < 2; i++ {
        require.Equal(t, http.StatusOK, do(e, "/open", "10.0.0.1:1000", "").Code)
    }
    require.Equal(t, http.StatusTooManyRequests, do(e, "/open", "10.0.0.1:1000", "").Code)

    // A different address holds its own counter.
    require.Equal(t, http.StatusOK, do(e, "/open", "10.0.0.2:1000", "").Code)
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
    e := echo.New()
    e.GET("/open", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, RateLimit(nil, 1))

    for i := 0; i < 5; i++ {
        require.Equal(t, http.StatusOK, do(e, "/open", "10.0.0.1:1000", "").Code)
    }
}
