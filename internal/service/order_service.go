package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type PlaceOrderRequest struct {
	FirstName      string             `json:"first_name" validate:"required,max=100"`
	LastName       string             `json:"last_name" validate:"required,max=100"`
	Company        string             `json:"company" validate:"max=100"`
	Phone          string             `json:"phone" validate:"required,max=50"`
	Address        string             `json:"address" validate:"required"`
	Apartment      string             `json:"apartment" validate:"max=100"`
	City           string             `json:"city" validate:"required,max=100"`
	PostalCode     string             `json:"postal_code" validate:"max=20"`
	Country        string             `json:"country" validate:"required,max=100"`
	Items          []entity.OrderItem `json:"items" validate:"required,min=1"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountCode   string             `json:"discount_code"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	ShippingCost   decimal.Decimal    `json:"shipping_cost"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	PaymentMethod  string             `json:"payment_method"`
	ShippingMethod string             `json:"shipping_method"`
}

type PlacedOrder struct {
	OrderCode string                    `json:"order_id"`
	Stock     []entity.ItemStockOutcome `json:"stock"`
}

// OrderService owns the placement flow, order reads and refund requests.
type OrderService struct {
	orders      repository.OrderStore
	refunds     repository.RefundStore
	kafkaWriter *kafka.Writer
	validate    *validator.Validate
	now         func() time.Time
}

func NewOrderService(orders repository.OrderStore, refunds repository.RefundStore, kafkaWriter *kafka.Writer) *OrderService {
	return &OrderService{
		orders:      orders,
		refunds:     refunds,
		kafkaWriter: kafkaWriter,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// OrderCodePrefix classifies the item list: CD for custom-design-only
// orders, ORD for catalog-only, MD when both kinds are present.
func OrderCodePrefix(items []entity.OrderItem) string {
	var hasCustom, hasCatalog bool
	for _, item := range items {
		if item.IsCustom {
			hasCustom = true
		} else {
			hasCatalog = true
		}
	}
	switch {
	case hasCustom && hasCatalog:
		return "MD"
	case hasCustom:
		return "CD"
	default:
		return "ORD"
	}
}

func (s *OrderService) newOrderCode(items []entity.OrderItem) string {
	suffix := fmt.Sprintf("%X%04X", s.now().UnixMicro(), rand.Intn(0x10000))
	return OrderCodePrefix(items) + "-" + suffix
}

// PlaceOrder validates the candidate order, assigns its code and commits
// the order row, the discount redemption and the inventory decrements in
// one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, user *entity.User, req *PlaceOrderRequest) (*PlacedOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	if req.Subtotal.Sign() < 0 || req.ShippingCost.Sign() < 0 || req.TotalAmount.Sign() < 0 || req.DiscountAmount.Sign() < 0 {
		return nil, fmt.Errorf("%w: amounts must not be negative", entity.ErrValidation)
	}
	if !req.Subtotal.Sub(req.DiscountAmount).Add(req.ShippingCost).Equal(req.TotalAmount) {
		return nil, fmt.Errorf("%w: total_amount must equal subtotal - discount_amount + shipping_cost", entity.ErrValidation)
	}

	hasPositive := false
	for _, item := range req.Items {
		if item.Quantity > 0 {
			hasPositive = true
			break
		}
	}
	if !hasPositive {
		return nil, entity.ErrOrderEmpty
	}

	now := s.now()
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cod"
	}
	shippingMethod := req.ShippingMethod
	if shippingMethod == "" {
		shippingMethod = "standard"
	}

	order := &entity.Order{
		Code:           s.newOrderCode(req.Items),
		UserID:         user.ID,
		UserEmail:      user.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Company:        req.Company,
		Phone:          req.Phone,
		Address:        req.Address,
		Apartment:      req.Apartment,
		City:           req.City,
		PostalCode:     req.PostalCode,
		Country:        req.Country,
		Items:          req.Items,
		Subtotal:       req.Subtotal,
		DiscountAmount: req.DiscountAmount,
		ShippingCost:   req.ShippingCost,
		TotalAmount:    req.TotalAmount,
		PaymentMethod:  paymentMethod,
		ShippingMethod: shippingMethod,
		Status:         entity.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if strings.TrimSpace(req.DiscountCode) != "" {
		order.DiscountCode = entity.NormalizeDiscountCode(req.DiscountCode)
	}

	var outcomes []entity.ItemStockOutcome

	err := s.orders.Place(ctx, func(tx repository.OrderTx) error {
		if _, err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		if order.DiscountCode != "" {
			if err := tx.RedeemDiscount(ctx, order.DiscountCode); err != nil {
				return err
			}
		}

		var err error
		outcomes, err = s.decrementInventory(ctx, tx, order)
		return err
	})
	if err != nil {
		if errors.Is(err, entity.ErrDiscountExhausted) {
			return nil, err
		}
		logger.Error().Err(err).Str("order", order.Code).Msg("Error placing order")
		return nil, entity.ErrPlacementFailed
	}

	s.publishOrderEvent(ctx, order, "placed")

	return &PlacedOrder{OrderCode: order.Code, Stock: outcomes}, nil
}

// decrementInventory walks the non-custom line items in input order. For
// each item the first candidate variant whose inventory row for the
// canonical size still holds enough quantity gets decremented; items with
// no match are reported as insufficient but do not fail the order.
func (s *OrderService) decrementInventory(ctx context.Context, tx repository.OrderTx, order *entity.Order) ([]entity.ItemStockOutcome, error) {
	outcomes := make([]entity.ItemStockOutcome, 0, len(order.Items))

	for _, item := range order.Items {
		outcome := entity.ItemStockOutcome{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity}

		if item.IsCustom || item.ProductID == 0 || item.Size == "" || item.Quantity <= 0 {
			outcome.Outcome = entity.StockSkipped
			outcomes = append(outcomes, outcome)
			continue
		}

		size, mapped := entity.CanonicalSize(item.Size)
		if !mapped {
			logger.Warn().Str("order", order.Code).Str("size", item.Size).
				Msg("Unmapped size label on order item")
		}

		variantIDs, err := tx.VariantIDs(ctx, item.ProductID, item.Color)
		if err != nil {
			return nil, err
		}

		decremented := false
		for _, variantID := range variantIDs {
			ok, err := tx.DecrementStock(ctx, variantID, size, item.Quantity)
			if err != nil {
				return nil, err
			}
			if ok {
				decremented = true
				break
			}
		}

		if decremented {
			outcome.Outcome = entity.StockDecremented
		} else {
			outcome.Outcome = entity.StockInsufficient
			logger.Warn().Str("order", order.Code).Int64("product", item.ProductID).
				Str("size", size).Int("qty", item.Quantity).
				Msg("Insufficient stock for order item, order accepted anyway")
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// MyOrders lists the user's orders, optionally filtered by status.
func (s *OrderService) MyOrders(ctx context.Context, userID int64, status string) ([]entity.Order, error) {
	if status != "" && status != "all" && !entity.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: invalid status filter", entity.ErrValidation)
	}
	return s.orders.ListByUser(ctx, userID, status)
}

// GetOrder fetches one of the user's orders by internal id or external code.
func (s *OrderService) GetOrder(ctx context.Context, userID int64, ref entity.OrderRef) (*entity.Order, error) {
	return s.orders.FindForUser(ctx, userID, ref)
}

// FileRefund creates a Pending refund request; one per order.
func (s *OrderService) FileRefund(ctx context.Context, user *entity.User, ref entity.OrderRef, requestedItems string, refundAmount decimal.Decimal) (*entity.Refund, error) {
	if strings.TrimSpace(requestedItems) == "" {
		return nil, fmt.Errorf("%w: requested_items is required", entity.ErrValidation)
	}
	if refundAmount.Sign() < 0 {
		return nil, fmt.Errorf("%w: refund_amount must not be negative", entity.ErrValidation)
	}

	order, err := s.orders.FindForUser(ctx, user.ID, ref)
	if err != nil {
		return nil, err
	}

	exists, err := s.refunds.ExistsForOrder(ctx, order.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, entity.ErrRefundExists
	}

	now := s.now()
	refund := &entity.Refund{
		OrderCode:      order.Code,
		CustomerEmail:  user.Email,
		RequestedItems: requestedItems,
		RefundAmount:   refundAmount,
		Status:         entity.RefundStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if refund.ID, err = s.refunds.Create(ctx, refund); err != nil {
		logger.Error().Err(err).Str("order", order.Code).Msg("Error creating refund request")
		return nil, err
	}
	return refund, nil
}

// AdminListOrders lists all orders with optional status and user filters.
func (s *OrderService) AdminListOrders(ctx context.Context, status string, userID int64) ([]entity.Order, error) {
	if status != "" && status != "all" && !entity.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: invalid status filter", entity.ErrValidation)
	}
	return s.orders.List(ctx, status, userID)
}

// AdminUpdateStatus mutates an order's status; status changes are the only
// admin-side mutation an order ever sees.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, ref entity.OrderRef, status string) error {
	if !entity.ValidOrderStatus(status) {
		return fmt.Errorf("%w: invalid order status", entity.ErrValidation)
	}

	if err := s.orders.UpdateStatus(ctx, ref, status); err != nil {
		return err
	}

	if order, err := s.orders.Find(ctx, ref); err == nil {
		s.publishOrderEvent(ctx, order, status)
	}
	return nil
}

// AdminProcessRefund moves a refund request out of Pending.
func (s *OrderService) AdminProcessRefund(ctx context.Context, orderCode, status string) error {
	switch status {
	case entity.RefundStatusApproved, entity.RefundStatusRejected, entity.RefundStatusRefunded:
	default:
		return fmt.Errorf("%w: invalid refund status", entity.ErrValidation)
	}
	return s.refunds.UpdateStatus(ctx, orderCode, status)
}

type orderEvent struct {
	OrderCode string             `json:"order_id"`
	UserID    int64              `json:"user_id"`
	Status    string             `json:"status"`
	Items     []entity.OrderItem `json:"items"`
}

// publishOrderEvent emits an order lifecycle event after commit. Delivery
// failures are logged, never surfaced: the order is already persisted.
func (s *OrderService) publishOrderEvent(ctx context.Context, order *entity.Order, event string) {
	if s.kafkaWriter == nil {
		return
	}

	payload, err := json.Marshal(orderEvent{
		OrderCode: order.Code,
		UserID:    order.UserID,
		Status:    event,
		Items:     order.Items,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error marshalling order event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order.%s.%s", event, order.Code)),
		Value: payload,
	}
	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Str("order", order.Code).Msg("Error publishing order event")
	}
}
