package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/middlewares"
	"github.com/Yvann20/Flask/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type Config struct {
	// Endpoint is the address the API listens on.
	Endpoint string
	// AdminSubject is the only token subject allowed to call the API.
	AdminSubject string
	// Ready, when set, is checked by /healthz.
	Ready func(ctx context.Context) error
}

type Router struct {
	config         Config
	orderService   models.OrderService
	receiptService models.ReceiptService
	jwtService     models.JWTService
	metrics        http.Handler
}

func New(
	config Config,
	orderService models.OrderService,
	receiptService models.ReceiptService,
	jwtService models.JWTService,
	metrics http.Handler,
) *Router {
	return &Router{
		config:         config,
		orderService:   orderService,
		receiptService: receiptService,
		jwtService:     jwtService,
		metrics:        metrics,
	}
}

func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middlewares.ServiceInjectorMiddleware(
			router.orderService,
			router.receiptService,
			router.jwtService,
		),
		logger.RequestLogger,
		middlewares.AuthMiddleware(router.config.AdminSubject).WithExcludedPaths(
			"/healthz",
			"/metrics",
		).Middleware,
	)

	r.Get("/healthz", router.health)
	if router.metrics != nil {
		r.Method(http.MethodGet, "/metrics", router.metrics)
	}

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", GetOrders)
		r.Get("/{id}", GetOrder)
		r.Get("/{id}/receipt", GetReceipt)
		r.With(middlewares.JSONMiddleware[models.StatusUpdate]).Patch("/{id}/status", UpdateOrderStatus)
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts the server down.
func (router *Router) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              router.config.Endpoint,
		Handler:           router.get(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("failed to shut down http server", zap.Error(err))
		}
	}()

	logger.Log.Info("http api listening", zap.String("address", router.config.Endpoint))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (router *Router) health(w http.ResponseWriter, r *http.Request) {
	if router.config.Ready != nil {
		if err := router.config.Ready(r.Context()); err != nil {
			logger.Log.Warn("readiness check failed", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
