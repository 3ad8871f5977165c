// Package main is the entry point for the chat relay server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/relaykit/chat-relay/internal/config"
	"github.com/relaykit/chat-relay/internal/events"
	"github.com/relaykit/chat-relay/internal/handler"
	"github.com/relaykit/chat-relay/internal/middleware"
	"github.com/relaykit/chat-relay/internal/responder"
	"github.com/relaykit/chat-relay/internal/service"
	"github.com/relaykit/chat-relay/internal/store"
	"github.com/relaykit/chat-relay/internal/store/memory"
	"github.com/relaykit/chat-relay/internal/store/postgres"
	"github.com/relaykit/chat-relay/pkg/logger"
	"github.com/relaykit/chat-relay/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting chat relay server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-relay", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Initialize storage
	st, err := newStore(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()
	log.Info("store initialized", zap.String("driver", cfg.StoreDriver))

	// Optionally connect to NATS for turn-event fan-out
	var natsClient *events.Client
	var publisher service.EventPublisher
	if cfg.NATSEnabled {
		natsClient, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		if err := natsClient.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		publisher = events.NewPublisher(natsClient, cfg.SourceTag)
	}

	// Initialize the responder backend
	resp, err := newResponder(cfg)
	if err != nil {
		log.Error("failed to initialize responder", zap.Error(err))
		os.Exit(1)
	}
	log.Info("responder initialized", zap.String("backend", resp.Name()))

	// Initialize services and handlers
	chatSvc := service.NewChatService(st, st, resp, publisher, log, cfg.HistoryWindow, cfg.SourceTag)

	healthHandler := handler.NewHealthHandler(st, natsClient)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	conversationHandler := handler.NewConversationHandler(chatSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Chat routes
	r.Route("/chat", func(r chi.Router) {
		if cfg.AuthRequired {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/", chatHandler.Send)
		r.Get("/", chatHandler.Recent)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)
			r.Get("/{id}", conversationHandler.Messages)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		return postgres.Connect(ctx, cfg.DatabaseURL)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}

func newResponder(cfg *config.Config) (responder.Responder, error) {
	switch cfg.ResponderDriver {
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required for the webhook responder")
		}
		return responder.NewWebhookResponder(cfg.WebhookURL, cfg.WebhookTimeout), nil
	case "openai":
		return responder.NewOpenAIResponder(cfg.OpenAIAPIKey, cfg.ResponderModel)
	case "anthropic":
		return responder.NewAnthropicResponder(cfg.AnthropicAPIKey, cfg.ResponderModel)
	default:
		return nil, fmt.Errorf("unknown responder driver: %s", cfg.ResponderDriver)
	}
}
