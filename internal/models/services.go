package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// OrderService is the record store boundary. Persistence faults are logged
// and reported as false, nil or an empty slice.
//
//go:generate mockgen -destination=mocks/mock_order.go . OrderService
type OrderService interface {
	CreateOrder(ctx context.Context, order Order) bool

	GetOrderByID(ctx context.Context, id string) *Order

	SearchOrders(ctx context.Context, term string, limit int) []Order

	ListRecent(ctx context.Context, limit int) []Order

	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) bool
}

//go:generate mockgen -destination=mocks/mock_receipt.go . ReceiptService
type ReceiptService interface {
	Render(order Order) ([]byte, error)

	FileName(order Order) string
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(subject string) (string, error)

	ValidateToken(token string) (*jwt.Token, error)
}
