package middlewares

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Yvann20/Flask/internal/models"
)

type key int

const (
	OrderServiceKey key = iota
	ReceiptServiceKey
	JwtServiceKey
)

// ServiceInjectorMiddleware puts the services into the request context so the
// handlers can stay plain functions.
func ServiceInjectorMiddleware(
	orderService models.OrderService,
	receiptService models.ReceiptService,
	jwtService models.JWTService,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), OrderServiceKey, orderService)
			ctx = context.WithValue(ctx, ReceiptServiceKey, receiptService)
			ctx = context.WithValue(ctx, JwtServiceKey, jwtService)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetServiceFromContext writes a 500 and returns nil when no service of the
// requested type is stored under serviceKey.
func GetServiceFromContext[Service interface{}](w http.ResponseWriter, r *http.Request, serviceKey key) *Service {
	foundService, ok := r.Context().Value(serviceKey).(Service)

	if !ok {
		http.Error(w, fmt.Sprintf("Service wasn't found in context by key %v", serviceKey), http.StatusInternalServerError)
		return nil
	}

	return &foundService
}
