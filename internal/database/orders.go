package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yvann20/Flask/internal/models"
	"github.com/Yvann20/Flask/internal/utils"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateOrder = errors.New("order already exists")
	ErrOrderNotFound  = errors.New("order not found")
)

const orderColumns = `
			id,
			cpf,
			name,
			product,
			value,
			discount,
			savings,
			status,
			transaction_id,
			created_at,
			updated_at`

const (
	InsertOrderQuery = `
		INSERT INTO
			orders (id, cpf, name, product, value, discount, savings, status, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	SelectOrderQuery = `
		SELECT` + orderColumns + `
		FROM
			orders
		WHERE
			id = $1
	`
	SearchOrdersQuery = `
		SELECT` + orderColumns + `
		FROM
			orders
		WHERE
			id ILIKE $1
			OR cpf ILIKE $1
			OR name ILIKE $1
		ORDER BY
			created_at DESC, id DESC
		LIMIT $2
	`
	SelectRecentOrdersQuery = `
		SELECT` + orderColumns + `
		FROM
			orders
		ORDER BY
			created_at DESC, id DESC
		LIMIT $1
	`
	UpdateOrderStatusQuery = `
		UPDATE
			orders
		SET
			status = $2,
			updated_at = GREATEST($3, created_at)
		WHERE
			id = $1
	`
)

// OrderDB is a row of the orders table. Optional text columns are NULL when absent.
type OrderDB struct {
	ID             string
	DocumentNumber *string
	Name           string
	Product        string
	Value          decimal.Decimal
	Discount       decimal.Decimal
	Savings        decimal.Decimal
	Status         OrderStatusDB
	TransactionID  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderStatusDB struct {
	models.OrderStatus
}

func (s *OrderStatusDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("order status must be a string, got %T", value)
	}

	status, ok := models.ParseOrderStatus(strVal)
	if !ok {
		return fmt.Errorf("unknown order status %q", strVal)
	}

	*s = OrderStatusDB{status}
	return nil
}

func (s OrderStatusDB) Value() (driver.Value, error) {
	if !s.OrderStatus.Valid() {
		return nil, fmt.Errorf("unknown order status %q", s.OrderStatus)
	}
	return string(s.OrderStatus), nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// escapeLike makes term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func scanOrder(row pgx.Row) (*OrderDB, error) {
	order := &OrderDB{}
	err := row.Scan(
		&order.ID,
		&order.DocumentNumber,
		&order.Name,
		&order.Product,
		&order.Value,
		&order.Discount,
		&order.Savings,
		&order.Status,
		&order.TransactionID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrder inserts a new row. A taken id yields ErrDuplicateOrder.
func (d *Database) CreateOrder(ctx context.Context, order OrderDB) error {
	return d.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, InsertOrderQuery,
			order.ID,
			order.DocumentNumber,
			order.Name,
			order.Product,
			order.Value,
			order.Discount,
			order.Savings,
			order.Status,
			order.TransactionID,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			var e *pgconn.PgError
			if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
				return ErrDuplicateOrder
			}
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

// FindOrder returns nil without an error when the id is unknown.
func (d *Database) FindOrder(ctx context.Context, orderID string) (*OrderDB, error) {
	var order *OrderDB

	err := d.withConn(ctx, func(conn *pgxpool.Conn) error {
		found, err := scanOrder(conn.QueryRow(ctx, SelectOrderQuery, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to find order: %w", err)
		}
		order = found
		return nil
	})

	return order, err
}

// SearchOrders matches term case-insensitively against id, cpf and name,
// newest first.
func (d *Database) SearchOrders(ctx context.Context, term string, limit int) ([]OrderDB, error) {
	pattern := "%" + escapeLike(term) + "%"
	return d.queryOrders(ctx, SearchOrdersQuery, pattern, limit)
}

// FindRecentOrders returns the latest orders by creation time.
func (d *Database) FindRecentOrders(ctx context.Context, limit int) ([]OrderDB, error) {
	return d.queryOrders(ctx, SelectRecentOrdersQuery, limit)
}

func (d *Database) queryOrders(ctx context.Context, query string, args ...interface{}) ([]OrderDB, error) {
	var result []OrderDB

	err := d.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query orders: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanOrder(rows)
			if err != nil {
				return fmt.Errorf("failed to scan order row: %w", err)
			}
			result = append(result, *item)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate order rows: %w", err)
		}

		return nil
	})

	return result, err
}

// UpdateOrderStatus sets the status and bumps updated_at, never below created_at.
func (d *Database) UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatusDB, at time.Time) error {
	return d.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, UpdateOrderStatusQuery, orderID, status, at)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

// NewOrderDB converts a domain order into its row form.
func NewOrderDB(order models.Order) OrderDB {
	return OrderDB{
		ID:             order.ID,
		DocumentNumber: nullableText(order.DocumentNumber),
		Name:           order.Name,
		Product:        order.Product,
		Value:          order.Value,
		Discount:       order.Discount,
		Savings:        order.Savings,
		Status:         OrderStatusDB{order.Status},
		TransactionID:  nullableText(order.TransactionID),
		CreatedAt:      order.CreatedAt.Time,
		UpdatedAt:      order.UpdatedAt.Time,
	}
}

// Model converts the row back into a domain order.
func (o OrderDB) Model() models.Order {
	order := models.Order{
		ID:        o.ID,
		Name:      o.Name,
		Product:   o.Product,
		Value:     o.Value,
		Discount:  o.Discount,
		Savings:   o.Savings,
		Status:    o.Status.OrderStatus,
		CreatedAt: utils.RFC3339Date{Time: o.CreatedAt},
		UpdatedAt: utils.RFC3339Date{Time: o.UpdatedAt},
	}
	if o.DocumentNumber != nil {
		order.DocumentNumber = *o.DocumentNumber
	}
	if o.TransactionID != nil {
		order.TransactionID = *o.TransactionID
	}
	return order
}
