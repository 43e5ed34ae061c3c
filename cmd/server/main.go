package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-core/internal/apiclient"
	"storefront-core/internal/config"
	"storefront-core/internal/db"
	"storefront-core/internal/guestcart"
	"storefront-core/internal/logger"
	"storefront-core/internal/metrics"
	"storefront-core/internal/middleware"
	"storefront-core/internal/order"
	"storefront-core/internal/reconcile"
	"storefront-core/internal/storefront"
	"storefront-core/internal/transport"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = listenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Error("server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	var database *sql.DB
	if cfg.GuestCartBackend != "memory" {
		database = initDBFunc(cfg)
		defer database.Close()
	}

	srv := newServer(cfg, database)
	ctx, cancel := context.WithCancel(context.Background())
	defer srv.close(context.Background())
	defer cancel()
	go srv.limiter.RunCleanup(ctx)

	logger.L().Info("edge server running",
		zap.String("port", cfg.AppPort),
		zap.String("api", cfg.APIBaseURL),
		zap.String("guest_cart_backend", cfg.GuestCartBackend),
	)
	return startServerFunc(":"+cfg.AppPort, srv.handler)
}

type server struct {
	handler  http.Handler
	sessions *storefront.Registry
	limiter  *middleware.RateLimiter
}

// close ends every live session so background sync stops before exit.
func (s *server) close(ctx context.Context) {
	s.sessions.Close(ctx)
}

// newServer wires every component. A nil database selects the in-memory
// guest cart store.
func newServer(cfg *config.Config, database *sql.DB) *server {
	m := metrics.Default
	remote := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)

	var repo guestcart.Repository
	if database != nil {
		repo = guestcart.NewRepository(database)
	} else {
		repo = guestcart.NewMemoryRepository()
	}
	guests := guestcart.NewStore(repo)

	orders := order.NewClient(remote)
	tracker := order.NewTracker(orders, cfg.OrderViewSize, cfg.OrderViewTTL, m)
	sessions := storefront.NewRegistry(remote, reconcile.New(guests, m), tracker, storefront.Options{
		PushURL:      cfg.PushURL,
		PollInterval: cfg.PollInterval,
		PageSize:     cfg.NotificationPage,
	}, m)

	h := transport.NewHandler(guests, sessions, tracker, orders, m)
	router := setupRouter(h)

	limiter := middleware.NewRateLimiter(cfg.InternalServiceKey)

	var handler http.Handler = router
	handler = limiter.Middleware(handler)
	handler = middleware.AuthMiddleware(cfg.JWTSecret)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)

	return &server{handler: handler, sessions: sessions, limiter: limiter}
}

func setupRouter(h *transport.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	h.Register(mux)
	return mux
}

// listenAndServe serves until SIGINT/SIGTERM, then drains in-flight requests.
func listenAndServe(addr string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
