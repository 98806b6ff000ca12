package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-seat-reservation/internal/booking"
	"github.com/iliyamo/flight-seat-reservation/internal/config"
	"github.com/iliyamo/flight-seat-reservation/internal/database"
	"github.com/iliyamo/flight-seat-reservation/internal/handler"
	"github.com/iliyamo/flight-seat-reservation/internal/middleware"
	"github.com/iliyamo/flight-seat-reservation/internal/payment"
	"github.com/iliyamo/flight-seat-reservation/internal/queue"
	"github.com/iliyamo/flight-seat-reservation/internal/repository"
	"github.com/iliyamo/flight-seat-reservation/internal/router"
	queue_publisher "github.com/iliyamo/flight-seat-reservation/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories and the transactional store.
	flights := repository.NewFlightRepo(db)
	reservations := repository.NewReservationRepo(db)
	tickets := repository.NewTicketRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	store := repository.NewStore(db, flights, reservations, tickets, users)

	// Notifications go through RabbitMQ; the consumer writes them to
	// logs/notifications.log.
	notifier := queue_publisher.NewNotifier()
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	provider := payment.NewHTTPProvider(cfg.PaymentBaseURL)
	svc := booking.NewService(store, provider, notifier)

	// Background sweeper cancels unpaid reservations past the expiry window.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := booking.NewSweeper(store, notifier, cfg.ReservationExpiry, cfg.SweepInterval)
	go sweeper.Run(ctx)

	e := echo.New()

	// Redis backs the token-bucket rate limiter and the response cache for
	// the public catalogue.  When Redis is unreachable both degrade to
	// no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	adminHandler := handler.NewAdminFlightHandler(flights)
	publicHandler := handler.NewPublicFlightHandler(flights)
	customerHandler := handler.NewCustomerHandler(svc, reservations, tickets)
	paymentHandler := handler.NewPaymentHandler(svc)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)
	router.RegisterCustomer(e, customerHandler, paymentHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
