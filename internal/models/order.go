package models

import (
	"encoding/json"
	"strings"

	"github.com/Yvann20/Flask/internal/utils"
	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of states an order can be in.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pendente"
	StatusDelivered OrderStatus = "entregue"
	StatusCancelled OrderStatus = "cancelado"
)

const (
	// DefaultSearchLimit bounds search results so a reply fits the chat transport.
	DefaultSearchLimit = 20
	// DefaultRecentLimit is the number of orders returned by the recent listing.
	DefaultRecentLimit = 10
)

var orderStatuses = []OrderStatus{StatusPending, StatusDelivered, StatusCancelled}

// OrderStatuses returns every known status in display order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

// ParseOrderStatus maps free text onto a known status, ignoring case and surrounding spaces.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}

func (s OrderStatus) Valid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a customer order as persisted by the record store.
type Order struct {
	ID             string            `json:"id"`
	DocumentNumber string            `json:"cpf,omitempty"`
	Name           string            `json:"name"`
	Product        string            `json:"product"`
	Value          decimal.Decimal   `json:"value"`
	Discount       decimal.Decimal   `json:"discount"`
	Savings        decimal.Decimal   `json:"savings"`
	Status         OrderStatus       `json:"status"`
	TransactionID  string            `json:"transaction_id,omitempty"`
	CreatedAt      utils.RFC3339Date `json:"created_at"`
	UpdatedAt      utils.RFC3339Date `json:"updated_at"`
}

// MarshalJSON renders money with two decimal places, whatever scale the
// amounts came back from the store with.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Value    string `json:"value"`
		Discount string `json:"discount"`
		Savings  string `json:"savings"`
	}{
		plain:    plain(o),
		Value:    o.Value.StringFixed(2),
		Discount: o.Discount.StringFixed(2),
		Savings:  o.Savings.StringFixed(2),
	})
}

// FinalValue is the amount charged after the discount.
func (o Order) FinalValue() decimal.Decimal {
	return o.Value.Sub(o.Discount)
}

// StatusUpdate is the body of a status change request.
type StatusUpdate struct {
	Status *string `json:"status"`
}
