package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	h "github.com/sheldonroth/sheldonroth/checkout-service/internal/http"
	"github.com/sheldonroth/sheldonroth/checkout-service/internal/processor"
	"github.com/sheldonroth/sheldonroth/checkout-service/internal/repository"
	"github.com/sheldonroth/sheldonroth/checkout-service/internal/service"
	"github.com/sheldonroth/sheldonroth/pkg/circuitbreaker"
	"github.com/sheldonroth/sheldonroth/pkg/config"
	"github.com/sheldonroth/sheldonroth/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	HTTPPort        string
	StripeSecretKey string
	BaseURL         string
	DatabaseURL     string
	BreakerFailures int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

func loadConfig() *Config {
	config.LoadDotEnv()
	return &Config{
		HTTPPort:        config.GetEnv("HTTP_PORT", "8081"),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		BaseURL:         config.GetEnv("BASE_URL", service.DefaultBase),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		BreakerFailures: config.GetInt("BREAKER_MAX_FAILURES", 5),
		RequestTimeout:  config.GetDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: config.GetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        config.GetEnv("LOG_LEVEL", "info"),
	}
}

func main() {
	cfg := loadConfig()
	log := logger.New("checkout-service", cfg.LogLevel)
	log.Info("checkout-service starting...")

	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set; checkout requests will fail until it is configured")
	}

	var ledger service.Ledger
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		repo, err := repository.NewRepository(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer repo.Close()

		if err := repo.RunMigrations(); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		log.Info("database migrations completed")
		ledger = repo
	}

	breaker := circuitbreaker.DefaultSettings("stripe")
	breaker.ConsecutiveFailures = uint32(cfg.BreakerFailures)
	stripe := processor.WithBreaker(processor.NewStripeProcessor(cfg.StripeSecretKey, nil), breaker, log)

	svc := service.NewCheckoutService(stripe, ledger, cfg.BaseURL, log)
	checkoutHandler := h.NewCheckoutHandler(svc, cfg.RequestTimeout, log)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", h.Health)
	r.Post("/api/checkout", checkoutHandler.CreateSession)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "checkout-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("checkout-service listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down checkout-service...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("checkout-service stopped")
}
