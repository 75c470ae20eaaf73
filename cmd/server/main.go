package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/arenalive/ticketgate/internal/checkout"
	"github.com/arenalive/ticketgate/internal/config"
	"github.com/arenalive/ticketgate/internal/database"
	"github.com/arenalive/ticketgate/internal/gate"
	"github.com/arenalive/ticketgate/internal/handler"
	"github.com/arenalive/ticketgate/internal/middleware"
	"github.com/arenalive/ticketgate/internal/payment"
	"github.com/arenalive/ticketgate/internal/queue"
	"github.com/arenalive/ticketgate/internal/repository"
	"github.com/arenalive/ticketgate/internal/router"
	order_publisher "github.com/arenalive/ticketgate/internal/service"
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

	// Redis is optional: a nil client turns the rate limiter and the
	// response cache into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// Repositories over MySQL.
	sessions := repository.NewSessionRepo(db)
	tiers := repository.NewTierRepo(db)
	fees := repository.NewFeeRuleRepo(db)
	promos := repository.NewPromoRepo(db)
	orders := repository.NewOrderRepo(db)

	// Admission gate plus its staleness reaper: the backstop for buyers
	// whose browsers never send the exit beacon.
	g := gate.New(sessions)
	reaper := gate.NewReaper(g, sessions, time.Duration(cfg.ReapIntervalSec)*time.Second)
	go reaper.Run(context.Background())

	// Payment capability: external processor or the built-in mock.
	var processor payment.Processor = payment.MockProcessor{}
	if cfg.PaymentMode == "http" && cfg.PaymentURL != "" {
		processor = payment.NewHTTPProcessor(cfg.PaymentURL)
	} else {
		log.Println("payment: using mock processor")
	}

	checkoutSvc := checkout.NewService(
		g, tiers, fees, promos, processor, orders,
		order_publisher.Publisher{}, cfg.Env, cfg.ProtectionFeeCents,
	)

	// Consume order.completed into logs/orders.log; reconnects forever.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order-consumer: stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	passTTL := time.Duration(cfg.GatePassTTLMin) * time.Minute
	router.RegisterGate(e, handler.NewGateHandler(g, checkoutSvc, cfg.GateMaxConcurrent, cfg.GatePassSecret, passTTL), limiter)
	router.RegisterTiers(e, handler.NewTierHandler(tiers), cache)
	router.RegisterCheckout(e, handler.NewCheckoutHandler(checkoutSvc), cfg.GatePassSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
