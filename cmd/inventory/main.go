package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lvlup/bookstore/internal/api"
	"github.com/lvlup/bookstore/internal/cart"
	"github.com/lvlup/bookstore/internal/catalog"
	"github.com/lvlup/bookstore/internal/config"
	"github.com/lvlup/bookstore/internal/messaging"
	"github.com/lvlup/bookstore/internal/orders"
	"github.com/lvlup/bookstore/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL is required")
		os.Exit(1)
	}

	metricsHandler, shutdownTelemetry, err := telemetry.Setup(ctx, "inventory", "0.1.0", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(ctx) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	bookRepo := catalog.NewRepository()
	var books catalog.BookStore = bookRepo
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = redisClient.Close() }()
		books = catalog.NewCachedBooks(bookRepo, redisClient, cfg.BookCacheTTL, logger)
		logger.Info("book read cache enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.BookCacheTTL)
	}

	var publisher orders.EventPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer := messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	cartRepo := cart.NewRepository()
	cartService := cart.NewService(db, cartRepo, books, logger)
	cartHandler := cart.NewHandler(cartService, logger)

	orderRepo := orders.NewRepository()
	orderService := orders.NewService(db, orderRepo, cartRepo, books, publisher, logger)
	orderHandler := orders.NewHandler(orderService, logger)

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}

	handle("POST /api/inventory/orders/create", api.RequireUser(orderHandler.HandleCreate))
	handle("GET /api/inventory/orders/my-orders", api.RequireUser(orderHandler.HandleListMyOrders))
	handle("GET /api/inventory/orders/my-orders/{orderId}", api.RequireUser(orderHandler.HandleGetMyOrder))
	handle("GET /api/inventory/orders", api.RequireAdmin(orderHandler.HandleListAll))
	handle("PUT /api/inventory/orders/{orderId}/change-status", api.RequireAdmin(orderHandler.HandleChangeStatus))

	handle("GET /api/inventory/shopping-cart", api.RequireUser(cartHandler.HandleGetCart))
	handle("POST /api/inventory/shopping-cart/items/add", api.RequireUser(cartHandler.HandleAddItem))
	handle("PUT /api/inventory/shopping-cart/items/update/{itemId}", api.RequireUser(cartHandler.HandleUpdateItem))
	handle("DELETE /api/inventory/shopping-cart/items/delete/{itemId}", api.RequireUser(cartHandler.HandleRemoveItem))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", metricsHandler)

	handler := otelhttp.NewHandler(api.RequestID(api.LogRequests(logger, mux)), "inventory",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting inventory service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
