package main // Entry point package

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/config"
    "github.com/iliyamo/bookstore-orders/internal/database"
    "github.com/iliyamo/bookstore-orders/internal/handler"
    "github.com/iliyamo/bookstore-orders/internal/middleware"
    "github.com/iliyamo/bookstore-orders/internal/queue"
    "github.com/iliyamo/bookstore-orders/internal/repository"
    "github.com/iliyamo/bookstore-orders/internal/router"
    "github.com/iliyamo/bookstore-orders/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("migrate: %v", err)
    }

    rdb := config.NewRedisClient()
    if rdb == nil {
        // Carts and refresh sessions live in Redis.
        log.Fatal("redis: not configured or unreachable")
    }

    // Repositories
    books := repository.NewBookRepo(db)
    orders := repository.NewOrderRepo(db)
    cancels := repository.NewCancellationRepo(db)
    tracking := repository.NewTrackingRepo(db)
    reports := repository.NewReportRepo(db)
    customers := repository.NewCustomerRepo(db)
    staff := repository.NewStaffRepo(db)
    carts := repository.NewCartRepo(rdb, time.Duration(cfg.CartTTLMin)*time.Minute)

    // First run creates the bootstrap admin so the staff surface is
    // reachable before any accounts exist.
    if err := staff.EnsureAdmin(ctx, "Administrator", "admin@bookstore.local", "change-me", cfg.BcryptCost); err != nil {
        log.Fatalf("bootstrap admin: %v", err)
    }

    // Services
    engine := service.NewOrderService(books, orders, cancels, tracking, queue.NewPublisher(),
        cfg.TaxRate, time.Duration(cfg.CancelWindowSec)*time.Second)
    cartSvc := service.NewCartService(carts, books, cfg.TaxRate)
    trackSvc := service.NewTrackingService(tracking, orders)

    // Handlers
    authH := handler.NewAuthHandler(cfg, customers, staff, rdb)
    publicH := handler.NewPublicHandler(books, orders, trackSvc)
    adminH := handler.NewAdminHandler(books)
    staffH := handler.NewStaffHandler(engine, orders, cancels, customers, staff, cfg.BcryptCost)
    staffAccH := handler.NewStaffAccountHandler(staff, cfg.BcryptCost)
    staffTrackH := handler.NewStaffTrackingHandler(trackSvc, orders, staff)
    reportH := handler.NewReportHandler(reports)
    cartH := handler.NewCartHandler(cartSvc)
    custOrderH := handler.NewCustomerOrderHandler(engine, cartSvc, trackSvc, orders, cancels, customers)

    e := echo.New()

    // Applied per route group so authenticated traffic is limited per
    // account rather than per address.
    rl := middleware.RateLimit(rdb, cfg.RateLimitPerMin)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret, rl)
    router.RegisterPublic(e, publicH, rl)
    router.RegisterAdmin(e, adminH, staffAccH, cfg.JWTSecret, rl)
    router.RegisterStaff(e, staffH, staffTrackH, reportH, cfg.JWTSecret, rl)
    router.RegisterCustomer(e, cartH, custOrderH, cfg.JWTSecret, rl)

    // Order events are consumed in-process into the fulfilment log.
    go func() {
        if err := queue.StartOrderConsumer(); err != nil {
            log.Printf("order consumer: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
