package router // router wires URL paths to handlers and their middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/handler"
    "github.com/iliyamo/bookstore-orders/internal/middleware"
)

// The rate limiter is applied per group, after JWTAuth on the
// authenticated ones, so logged-in clients are limited per account
// while guests fall back to their remote address.

// RegisterRoutes registers routes that require no authentication
// beyond what the handlers themselves enforce.  Currently the health
// check only; health checks stay outside the rate limit.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints and the protected /v1/me
// probe.  Register, login, refresh and logout are unauthenticated by
// design; they mint or destroy the credentials everything else needs,
// so they are limited per IP.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rl echo.MiddlewareFunc) {
    g := e.Group("/v1/auth", rl)
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    me := e.Group("/v1")
    me.Use(middleware.JWTAuth(jwtSecret))
    me.Use(rl)
    me.GET("/me", a.Me)
}

// RegisterPublic registers the guest-facing catalog and the tracking
// lookup by order reference.  No JWT is required; possession of the
// reference UUID is the authorization.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rl echo.MiddlewareFunc) {
    e.GET("/v1/books", p.ListBooks, rl)
    e.GET("/v1/books/:id", p.GetBook, rl)
    e.GET("/v1/tracking", p.TrackByReference, rl)
}

// RegisterAdmin registers catalog and staff-account management under
// /v1/admin for the ADMIN role only.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, sa *handler.StaffAccountHandler, jwtSecret string, rl echo.MiddlewareFunc) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(rl)
    g.Use(middleware.RequireRole("ADMIN"))

    g.POST("/books", a.CreateBook)
    g.GET("/books", a.ListBooks)
    g.GET("/books/low-stock", a.LowStock)
    g.PUT("/books/:id", a.UpdateBook)
    g.DELETE("/books/:id", a.DeleteBook)

    g.POST("/staff", sa.Create)
    g.GET("/staff", sa.List)
    g.PUT("/staff/:id/active", sa.SetActive)
}

// RegisterStaff registers counter sales, walk-in customer management,
// the fulfilment board and the sales reports under /v1/staff.  Admins
// can do everything staff can.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, t *handler.StaffTrackingHandler, r *handler.ReportHandler, jwtSecret string, rl echo.MiddlewareFunc) {
    g := e.Group("/v1/staff")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(rl)
    g.Use(middleware.RequireRole("ADMIN", "STAFF"))

    g.POST("/orders", s.CreateSale)
    g.GET("/orders", s.ListOrders)
    g.GET("/orders/:id", s.GetOrder)
    g.POST("/orders/:id/cancel", s.CancelOrder)

    g.POST("/customers", s.CreateCustomer)
    g.GET("/customers", s.ListCustomers)

    g.GET("/tracking", t.Board)
    g.POST("/tracking/:id", t.Advance)

    g.GET("/reports/sales", r.Sales)
}

// RegisterCustomer registers the cart and order endpoints for the
// CUSTOMER role.
func RegisterCustomer(e *echo.Echo, cart *handler.CartHandler, orders *handler.CustomerOrderHandler, jwtSecret string, rl echo.MiddlewareFunc) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(rl)
    g.Use(middleware.RequireRole("CUSTOMER"))

    g.GET("/cart", cart.View)
    g.POST("/cart/items", cart.AddItem)
    g.PUT("/cart/items/:bookId", cart.UpdateQuantity)
    g.DELETE("/cart/items/:bookId", cart.RemoveItem)
    g.DELETE("/cart", cart.Clear)

    g.POST("/checkout", orders.Checkout)
    g.POST("/purchase", orders.Purchase)
    g.GET("/orders", orders.MyOrders)
    g.GET("/orders/:id", orders.GetOrder)
    g.POST("/orders/:id/cancel", orders.CancelOrder)
    g.GET("/orders/:id/tracking", orders.OrderTracking)
}
