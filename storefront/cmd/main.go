package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sheldonroth/sheldonroth/pkg/config"
	"github.com/sheldonroth/sheldonroth/pkg/logger"
	"github.com/sheldonroth/sheldonroth/storefront/internal/cart"
	"github.com/sheldonroth/sheldonroth/storefront/internal/catalog"
	"github.com/sheldonroth/sheldonroth/storefront/internal/checkout"
	h "github.com/sheldonroth/sheldonroth/storefront/internal/http"
	"github.com/sheldonroth/sheldonroth/storefront/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	HTTPPort         string
	CartStorage      string
	RedisAddr        string
	RedisPassword    string
	MongoURI         string
	MongoDBName      string
	CatalogDBPath    string
	CheckoutEndpoint string
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
	LogLevel         string
}

func loadConfig() *Config {
	config.LoadDotEnv()
	return &Config{
		HTTPPort:         config.GetEnv("HTTP_PORT", "3000"),
		CartStorage:      config.GetEnv("CART_STORAGE", "redis"),
		RedisAddr:        config.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    config.GetEnv("REDIS_PASSWORD", ""),
		MongoURI:         config.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:      config.GetEnv("MONGO_DB_NAME", "storefront"),
		CatalogDBPath:    config.GetEnv("CATALOG_DB_PATH", "catalog.db"),
		CheckoutEndpoint: config.GetEnv("CHECKOUT_ENDPOINT", "http://localhost:8081/api/checkout"),
		RequestTimeout:   config.GetDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:  config.GetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:         config.GetEnv("LOG_LEVEL", "info"),
	}
}

func main() {
	cfg := loadConfig()
	log := logger.New("storefront", cfg.LogLevel)
	slog.SetDefault(log)

	ctx := context.Background()

	cartStorage, closeStorage, err := openCartStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open cart storage", "backend", cfg.CartStorage, "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	repo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Error("failed to open catalog database", "path", cfg.CatalogDBPath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	// Without a schema every query fails and the placeholder catalog is served.
	if err := repo.RunMigrations(); err != nil {
		log.Warn("catalog migrations failed", "error", err)
	}

	initiator := checkout.NewInitiator(cfg.CheckoutEndpoint,
		checkout.WithTimeout(cfg.RequestTimeout),
		checkout.WithLogger(log),
	)

	cartHandler := h.NewCartHandler(cartStorage, repo, initiator, cfg.RequestTimeout, log)
	productHandler := h.NewProductHandler(repo, initiator, cfg.RequestTimeout, log)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	h.RegisterRoutes(r, cartHandler, productHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", "port", cfg.HTTPPort, "cart_storage", cfg.CartStorage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

func openCartStorage(ctx context.Context, cfg *Config, log *slog.Logger) (cart.Storage, func(), error) {
	switch cfg.CartStorage {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		rs := storage.NewRedisStorage(client)
		if err := rs.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
		return rs, func() { client.Close() }, nil

	case "mongo":
		return openMongo(ctx, cfg, log)

	case "mongo-redis":
		ms, closeMongo, err := openMongo(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		cache := storage.NewRedisStorage(client)
		// The cache is optional: an unreachable Redis only costs latency.
		if err := cache.Ping(ctx); err != nil {
			log.Warn("redis ping failed, carts will be read from MongoDB", "addr", cfg.RedisAddr, "error", err)
		}
		return storage.NewCachedStorage(ms, cache, log), func() {
			client.Close()
			closeMongo()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown CART_STORAGE %q", cfg.CartStorage)
	}
}

func openMongo(ctx context.Context, cfg *Config, log *slog.Logger) (*storage.MongoStorage, func(), error) {
	db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}
	ms := storage.NewMongoStorage(db)
	if err := ms.CreateIndexes(ctx); err != nil {
		log.Warn("failed to create cart indexes", "error", err)
	}
	log.Info("connected to MongoDB", "uri", redactURI(cfg.MongoURI), "database", cfg.MongoDBName)
	return ms, func() { db.Client().Disconnect(context.Background()) }, nil
}

// redactURI strips credentials from a connection string before it is logged.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<unparsable uri>"
	}
	u.User = nil
	return u.String()
}
