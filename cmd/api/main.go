package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vinhtranngoc35/e-commerce-app/internal/config"
	"github.com/vinhtranngoc35/e-commerce-app/internal/httpx"
	kafkax "github.com/vinhtranngoc35/e-commerce-app/internal/kafka"
	"github.com/vinhtranngoc35/e-commerce-app/internal/logging"
	"github.com/vinhtranngoc35/e-commerce-app/internal/orders"
	"github.com/vinhtranngoc35/e-commerce-app/internal/payment"
	"github.com/vinhtranngoc35/e-commerce-app/internal/postgres"
	"github.com/vinhtranngoc35/e-commerce-app/internal/product"
	"github.com/vinhtranngoc35/e-commerce-app/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logging.Sync(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prodCreated := kafkax.NewProducer(cfg.KafkaBrokers, cfg.TopicOrderCreated, 1024, logger)
	prodCreated.Start()
	prodRejected := kafkax.NewProducer(cfg.KafkaBrokers, cfg.TopicOrderRejected, 1024, logger)
	prodRejected.Start()

	cache := &redisx.QuantityCache{RDB: rdb, Log: logger}
	productSvc := &product.Service{
		Cache:        cache,
		Store:        &product.Repo{DB: db},
		Log:          logger,
		StoreTimeout: cfg.StoreTimeout,
	}
	paymentSvc := &payment.Service{Repo: &payment.PGRepo{DB: db}, Log: logger}
	orderSvc := &orders.Service{
		Availability:     productSvc,
		Payments:         paymentSvc,
		Repo:             &orders.Repo{DB: db},
		ProducerCreated:  prodCreated,
		ProducerRejected: prodRejected,
		ServiceName:      cfg.ServiceName,
		Log:              logger,
		CheckTimeout:     cfg.StoreTimeout,
		PaymentTimeout:   cfg.PaymentTimeout,
	}

	router := httpx.NewRouter(cfg.MaxInflight)
	(&httpx.AvailabilityHandler{Service: productSvc, Timeout: cfg.RequestTimeout}).Register(router)
	(&httpx.OrdersHandler{Service: orderSvc, Timeout: cfg.RequestTimeout}).Register(router)
	(&httpx.PaymentsHandler{Service: paymentSvc, Timeout: cfg.RequestTimeout}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	prodCreated.Close()
	prodRejected.Close()
	prodCreated.WaitClosed()
	prodRejected.WaitClosed()
}
