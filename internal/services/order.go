package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/Yvann20/Flask/internal/clock"
	"github.com/Yvann20/Flask/internal/database"
	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/Yvann20/Flask/internal/models"
	"github.com/Yvann20/Flask/internal/utils"
	"github.com/Yvann20/Flask/internal/validation"
	"go.uber.org/zap"
)

// Field limits applied before anything reaches the database.
const (
	MaxIDLength            = 64
	MaxNameLength          = 200
	MinNameLength          = 3
	MaxProductLength       = 300
	MinProductLength       = 3
	MaxTransactionIDLength = 128
	MaxSearchTermLength    = 100

	maxQueryLimit = 100
)

var (
	errEmptyID          = errors.New("order id is empty")
	errIDWithSpaces     = errors.New("order id contains whitespace")
	errDiscountTooLarge = errors.New("discount is greater than value")
	errNegativeAmount   = errors.New("amount is negative")
	errInvalidDocument  = errors.New("document number must have 11 digits")
	errInvalidStatus    = errors.New("unknown order status")
	errShortText        = errors.New("name or product is too short")
)

// OrderService owns the persisted orders. Storage errors never leave it:
// they are logged and turned into false, nil or an empty slice.
type OrderService struct {
	storage orderStorage
	clock   clock.Clock
	metrics *metrics.Registry
}

type orderStorage interface {
	CreateOrder(ctx context.Context, order database.OrderDB) error
	FindOrder(ctx context.Context, orderID string) (*database.OrderDB, error)
	SearchOrders(ctx context.Context, term string, limit int) ([]database.OrderDB, error)
	FindRecentOrders(ctx context.Context, limit int) ([]database.OrderDB, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status database.OrderStatusDB, at time.Time) error
}

func NewOrderService(storage orderStorage, clk clock.Clock, reg *metrics.Registry) *OrderService {
	return &OrderService{storage: storage, clock: clk, metrics: reg}
}

// CreateOrder persists a new order. It returns false when the id is taken,
// the order breaks an invariant or the write fails.
func (o *OrderService) CreateOrder(ctx context.Context, order models.Order) bool {
	shaped, err := o.shape(order)
	if err != nil {
		logger.Log.Warn("order rejected before persisting",
			zap.String("orderID", order.ID),
			zap.Error(err),
		)
		o.metrics.OrdersRejected.WithLabelValues("invalid").Inc()
		return false
	}

	if err := o.storage.CreateOrder(ctx, database.NewOrderDB(shaped)); err != nil {
		if errors.Is(err, database.ErrDuplicateOrder) {
			logger.Log.Info("order id already exists", zap.String("orderID", shaped.ID))
			o.metrics.OrdersRejected.WithLabelValues("duplicate").Inc()
			return false
		}

		logger.Log.Error("failed to create order", zap.String("orderID", shaped.ID), zap.Error(err))
		o.metrics.StoreFaults.WithLabelValues("create").Inc()
		return false
	}

	logger.Log.Info("order created", zap.String("orderID", shaped.ID))
	o.metrics.OrdersCreated.Inc()
	return true
}

// shape normalizes the fields of order and checks the invariants of the orders table.
func (o *OrderService) shape(order models.Order) (models.Order, error) {
	order.ID = validation.SanitizeText(order.ID, MaxIDLength)
	if order.ID == "" {
		return order, errEmptyID
	}
	if strings.ContainsFunc(order.ID, unicode.IsSpace) {
		return order, errIDWithSpaces
	}

	document, ok := validation.NormalizeDocumentNumber(strings.TrimSpace(order.DocumentNumber))
	if !ok {
		return order, errInvalidDocument
	}
	order.DocumentNumber = document

	order.Name = validation.SanitizeText(order.Name, MaxNameLength)
	order.Product = validation.SanitizeText(order.Product, MaxProductLength)
	if len([]rune(order.Name)) < MinNameLength || len([]rune(order.Product)) < MinProductLength {
		return order, errShortText
	}
	order.TransactionID = validation.SanitizeText(order.TransactionID, MaxTransactionIDLength)

	order.Value = order.Value.Round(2)
	order.Discount = order.Discount.Round(2)
	if order.Value.IsNegative() || order.Discount.IsNegative() {
		return order, errNegativeAmount
	}
	if order.Discount.GreaterThan(order.Value) {
		return order, errDiscountTooLarge
	}
	order.Savings = order.FinalValue()

	if order.Status == "" {
		order.Status = models.StatusPending
	}
	if !order.Status.Valid() {
		return order, errInvalidStatus
	}

	now := o.clock.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = utils.RFC3339Date{Time: now}
	}
	order.UpdatedAt = utils.RFC3339Date{Time: now}
	if order.UpdatedAt.Before(order.CreatedAt.Time) {
		order.UpdatedAt = order.CreatedAt
	}

	return order, nil
}

// GetOrderByID returns nil when the order does not exist or cannot be read.
func (o *OrderService) GetOrderByID(ctx context.Context, id string) *models.Order {
	id = validation.SanitizeText(id, MaxIDLength)
	if id == "" {
		return nil
	}

	found, err := o.storage.FindOrder(ctx, id)
	if err != nil {
		logger.Log.Error("failed to fetch order", zap.String("orderID", id), zap.Error(err))
		o.metrics.StoreFaults.WithLabelValues("get").Inc()
		return nil
	}

	if found == nil {
		return nil
	}

	order := found.Model()
	return &order
}

// SearchOrders matches term against name, document number and id, newest first.
func (o *OrderService) SearchOrders(ctx context.Context, term string, limit int) []models.Order {
	term = validation.SanitizeText(term, MaxSearchTermLength)
	if term == "" {
		return []models.Order{}
	}

	rows, err := o.storage.SearchOrders(ctx, term, clampLimit(limit, models.DefaultSearchLimit))
	if err != nil {
		logger.Log.Error("failed to search orders", zap.String("term", term), zap.Error(err))
		o.metrics.StoreFaults.WithLabelValues("search").Inc()
		return []models.Order{}
	}

	return toModels(rows)
}

// ListRecent returns the most recently created orders.
func (o *OrderService) ListRecent(ctx context.Context, limit int) []models.Order {
	rows, err := o.storage.FindRecentOrders(ctx, clampLimit(limit, models.DefaultRecentLimit))
	if err != nil {
		logger.Log.Error("failed to list recent orders", zap.Error(err))
		o.metrics.StoreFaults.WithLabelValues("list").Inc()
		return []models.Order{}
	}

	return toModels(rows)
}

// UpdateOrderStatus overwrites the status of an existing order and refreshes
// its last-update timestamp.
func (o *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) bool {
	if !status.Valid() {
		logger.Log.Warn("refusing unknown order status",
			zap.String("orderID", id),
			zap.String("status", string(status)),
		)
		return false
	}

	err := o.storage.UpdateOrderStatus(ctx, id, database.OrderStatusDB{OrderStatus: status}, o.clock.Now())
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			logger.Log.Info("status update for unknown order", zap.String("orderID", id))
			return false
		}

		logger.Log.Error("failed to update order status", zap.String("orderID", id), zap.Error(err))
		o.metrics.StoreFaults.WithLabelValues("update_status").Inc()
		return false
	}

	logger.Log.Info("updated order status",
		zap.String("orderID", id),
		zap.String("status", string(status)),
	)
	o.metrics.StatusUpdates.WithLabelValues(string(status)).Inc()
	return true
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

func toModels(rows []database.OrderDB) []models.Order {
	result := make([]models.Order, len(rows))
	for i, row := range rows {
		result[i] = row.Model()
	}
	return result
}
