package main // Entry point package

import (
    "context"
    "log" // Logging library

    "github.com/joho/godotenv"    // .env loader for local development
    "github.com/labstack/echo/v4" // Echo web framework
    "github.com/robfig/cron/v3"   // cron scheduler for background jobs

    "github.com/mixmaxy/event-ticketing/internal/booking"
    "github.com/mixmaxy/event-ticketing/internal/config"
    "github.com/mixmaxy/event-ticketing/internal/database"
    "github.com/mixmaxy/event-ticketing/internal/handler"
    "github.com/mixmaxy/event-ticketing/internal/middleware"
    "github.com/mixmaxy/event-ticketing/internal/queue"
    "github.com/mixmaxy/event-ticketing/internal/repository"
    "github.com/mixmaxy/event-ticketing/internal/router"
    queue_publisher "github.com/mixmaxy/event-ticketing/internal/service"
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

    // Redis backs the public response cache and the rate limiter.  A
    // nil client disables both instead of failing startup.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; cache and rate limiting disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    events := repository.NewEventRepo(db)
    tickets := repository.NewTicketRepo(db)
    coupons := repository.NewCouponRepo(db)
    points := repository.NewPointRepo(db)
    txns := repository.NewTransactionRepo(db)

    engine := booking.NewEngine(db, events, tickets, users, coupons, points, txns,
        queue_publisher.SettlementPublisher{})

    authHandler := handler.NewAuthHandler(cfg, db, users, tokens, coupons, points)
    organizerHandler := handler.NewOrganizerHandler(events, tickets)
    bookingHandler := handler.NewBookingHandler(engine, txns)
    profileHandler := handler.NewProfileHandler(users, points, coupons)
    publicHandler := &handler.PublicHandler{Events: events, Tickets: tickets}

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterPublic(e, publicHandler,
        middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
        middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
    )
    router.RegisterCustomer(e, bookingHandler, profileHandler, cfg.JWTSecret)
    router.RegisterOrganizer(e, organizerHandler, cfg.JWTSecret)

    // Background consumer that appends settlement lines to
    // logs/settlement.log as bookings commit.
    go func() {
        if err := queue.StartSettlementConsumer(); err != nil {
            log.Printf("settlement consumer stopped: %v", err)
        }
    }()

    // Periodic points expiry sweep.
    c := cron.New()
    if _, err := c.AddFunc(cfg.PointsExpiryCron, func() {
        n, err := engine.ExpireStalePoints(context.Background())
        if err != nil {
            log.Printf("points expiry sweep: %v", err)
        }
        if n > 0 {
            log.Printf("points expiry sweep: expired %d grants", n)
        }
    }); err != nil {
        log.Fatalf("points expiry cron %q: %v", cfg.PointsExpiryCron, err)
    }
    c.Start()
    defer c.Stop()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
