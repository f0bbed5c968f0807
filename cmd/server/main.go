package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/chatts-server/internal/api"
	"github.com/mohamedkhairy/chatts-server/internal/auth"
	"github.com/mohamedkhairy/chatts-server/internal/config"
	"github.com/mohamedkhairy/chatts-server/internal/storage"
	"github.com/mohamedkhairy/chatts-server/internal/wsgateway"
	"github.com/mohamedkhairy/chatts-server/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting chat server",
		logger.Int("port", cfg.Server.Port),
		logger.Int("max_connections", cfg.Socket.MaxConnections),
	)

	// Initialize document store
	store, err := storage.NewMongoStore(cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to initialize document store",
			logger.ErrorField(err),
		)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logger.Error("Error closing document store",
				logger.ErrorField(err),
			)
		}
	}()

	// Initialize member-list cache
	cache, err := storage.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize Redis cache",
			logger.ErrorField(err),
		)
	}
	defer cache.Close()

	chats := storage.NewCachedChatStore(store, cache)

	// Initialize token manager
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.CookieName)

	// Initialize and start the WebSocket hub
	hub := wsgateway.NewHub(cfg.Socket, tokens, store, chats, store)
	hub.Start()
	defer hub.Stop()

	// Set up HTTP server
	router := mux.NewRouter()

	// WebSocket endpoint
	router.HandleFunc("/ws", hub.ServeWS)

	// REST API
	handler := api.NewHandler(store, chats, tokens, hub)
	handler.RegisterRoutes(router, cfg.Server.RateLimitRPS)

	// Health check endpoints
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	router.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	})

	// Stats endpoint
	router.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"connections_active": hub.ConnectionCount(),
			"online_users":       hub.OnlineUsers(),
		})
	})

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Start HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server",
				logger.ErrorField(err),
			)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down chat server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}

	logger.Info("Chat server stopped")
}
