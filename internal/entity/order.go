package entity

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses lists every status an order can carry, in lifecycle order.
var OrderStatuses = []string{OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled}

func ValidOrderStatus(s string) bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Order struct {
	ID             int64           `json:"id"`
	Code           string          `json:"order_id"`
	UserID         int64           `json:"user_id"`
	UserEmail      string          `json:"user_email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Company        string          `json:"company,omitempty"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Apartment      string          `json:"apartment,omitempty"`
	City           string          `json:"city"`
	PostalCode     string          `json:"postal_code,omitempty"`
	Country        string          `json:"country"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountCode   string          `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	ShippingMethod string          `json:"shipping_method"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is embedded in the order row as a JSON list; items are
// immutable once the order is placed.
type OrderItem struct {
	ProductID int64           `json:"productId,omitempty"`
	IsCustom  bool            `json:"isCustom,omitempty"`
	DesignID  int64           `json:"designId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Size      string          `json:"size"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

// OrderRef addresses an order either by its internal row id or by its
// external human-readable code. Exactly one side is set.
type OrderRef struct {
	ID   int64
	Code string
}

func RefByID(id int64) OrderRef      { return OrderRef{ID: id} }
func RefByCode(code string) OrderRef { return OrderRef{Code: code} }

// ParseOrderRef turns a path parameter into a tagged reference: an
// all-digits value addresses the internal row id, anything else the
// external order code.
func ParseOrderRef(s string) OrderRef {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return RefByID(id)
	}
	return RefByCode(s)
}

// Stock outcomes reported per line item by order placement.
const (
	StockDecremented  = "decremented"
	StockInsufficient = "insufficient_stock"
	StockSkipped      = "skipped" // custom item or incomplete item data
)

type ItemStockOutcome struct {
	ProductID int64  `json:"product_id,omitempty"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"qty"`
	Outcome   string `json:"outcome"`
}

const (
	RefundStatusPending  = "Pending"
	RefundStatusApproved = "Approved"
	RefundStatusRejected = "Rejected"
	RefundStatusRefunded = "Refunded"
)

type Refund struct {
	ID             int64           `json:"id"`
	OrderCode      string          `json:"order_id"`
	CustomerEmail  string          `json:"customer_email"`
	RequestedItems string          `json:"requested_items"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
