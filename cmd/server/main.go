package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/response"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Error("migrate", "err", err)
			os.Exit(1)
		}
	}

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	payments := repository.NewPaymentRepo(db)
	tickets := repository.NewTicketRepo(db)

	// A nil interface keeps publishing off; a typed nil would not.
	var pub service.TicketsPublisher
	if cfg.RabbitMQ.URL != "" {
		pub = queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.TicketsQueue, log)
		consumer := &queue.Consumer{
			URL:    cfg.RabbitMQ.URL,
			Queue:  cfg.RabbitMQ.TicketsQueue,
			LogDir: cfg.RabbitMQ.LogDir,
			Log:    log,
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("tickets consumer stopped", "err", err)
			}
		}()
	} else {
		log.Warn("RABBITMQ_URL not set; tickets.issued messages disabled")
	}
	if cfg.Gateway.ServerKey == "" {
		log.Warn("GATEWAY_SERVER_KEY not set; notification signatures are not verified")
	}

	svc := service.NewPaymentService(
		repository.NewTxRunner(db),
		events, payments, tickets,
		gateway.NewSnapClient(cfg.Gateway.BaseURL, cfg.Gateway.ServerKey, cfg.Gateway.Timeout),
		pub,
		log,
		service.PaymentOptions{ServerKey: cfg.Gateway.ServerKey, VerifySignature: cfg.Gateway.VerifySignature},
	)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))

	rl := config.LoadRateLimitConfig()
	limiter := middleware.NewTokenBucket(rl, rdb)
	webhookLimiter := middleware.NewTokenBucket(rl.WebhookRateLimit(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	eventH := handler.NewEventHandler(events)
	paymentH := handler.NewPaymentHandler(svc, payments, tickets, users)
	ticketH := handler.NewTicketHandler(tickets)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, eventH, cache)
	router.RegisterWebhooks(e, paymentH, webhookLimiter)
	router.RegisterBuyer(e, paymentH, ticketH, cfg.JWTSecret, limiter)
	router.RegisterOrganizer(e, eventH, ticketH, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
	svc.Wait()
	log.Info("stopped")
}
