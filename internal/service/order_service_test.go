package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/repository"
)

type fakeOrderTx struct {
	inserted  *entity.Order
	redeemed  []string
	redeemErr error
	variants  map[int64][]int64
	stock     map[string]int // "variantID/size" -> quantity
}

func stockKey(variantID int64, size string) string {
	return fmt.Sprintf("%d/%s", variantID, size)
}

func (t *fakeOrderTx) InsertOrder(ctx context.Context, order *entity.Order) (int64, error) {
	t.inserted = order
	return 1, nil
}

func (t *fakeOrderTx) RedeemDiscount(ctx context.Context, code string) error {
	if t.redeemErr != nil {
		return t.redeemErr
	}
	t.redeemed = append(t.redeemed, code)
	return nil
}

func (t *fakeOrderTx) VariantIDs(ctx context.Context, productID int64, color string) ([]int64, error) {
	return t.variants[productID], nil
}

func (t *fakeOrderTx) DecrementStock(ctx context.Context, variantID int64, size string, qty int) (bool, error) {
	key := stockKey(variantID, size)
	if t.stock[key] < qty {
		return false, nil
	}
	t.stock[key] -= qty
	return true, nil
}

type fakeOrderStore struct {
	tx        *fakeOrderTx
	committed bool
	orders    map[string]*entity.Order
}

func (s *fakeOrderStore) Place(ctx context.Context, fn func(repository.OrderTx) error) error {
	if err := fn(s.tx); err != nil {
		return err
	}
	s.committed = true
	return nil
}

func (s *fakeOrderStore) Find(ctx context.Context, ref entity.OrderRef) (*entity.Order, error) {
	if o, okFound := s.orders[ref.Code]; okFound {
		return o, nil
	}
	return nil, entity.ErrOrderNotFound
}

func (s *fakeOrderStore) FindForUser(ctx context.Context, userID int64, ref entity.OrderRef) (*entity.Order, error) {
	o, err := s.Find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, entity.ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeOrderStore) ListByUser(ctx context.Context, userID int64, status string) ([]entity.Order, error) {
	return nil, nil
}

func (s *fakeOrderStore) List(ctx context.Context, status string, userID int64) ([]entity.Order, error) {
	return nil, nil
}

func (s *fakeOrderStore) UpdateStatus(ctx context.Context, ref entity.OrderRef, status string) error {
	return nil
}

type fakeRefundStore struct {
	existing map[string]bool
	created  []*entity.Refund
	statuses map[string]string
}

func (s *fakeRefundStore) ExistsForOrder(ctx context.Context, orderCode string) (bool, error) {
	return s.existing[orderCode], nil
}

func (s *fakeRefundStore) Create(ctx context.Context, refund *entity.Refund) (int64, error) {
	s.created = append(s.created, refund)
	return int64(len(s.created)), nil
}

func (s *fakeRefundStore) UpdateStatus(ctx context.Context, orderCode, status string) error {
	if s.statuses == nil {
		s.statuses = map[string]string{}
	}
	s.statuses[orderCode] = status
	return nil
}

func newTestOrderService(store *fakeOrderStore, refunds *fakeRefundStore) *OrderService {
	if refunds == nil {
		refunds = &fakeRefundStore{existing: map[string]bool{}}
	}
	svc := NewOrderService(store, refunds, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validPlaceRequest() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Phone:        "555-0100",
		Address:      "1 Analytical Way",
		City:         "London",
		PostalCode:   "E1 6AN",
		Country:      "UK",
		Items:        []entity.OrderItem{{ProductID: 7, Size: "M", Quantity: 2, Price: decimal.NewFromInt(25)}},
		Subtotal:     decimal.NewFromInt(50),
		ShippingCost: decimal.NewFromInt(5),
		TotalAmount:  decimal.NewFromInt(55),
	}
}

func TestOrderCodePrefix(t *testing.T) {
	catalog := entity.OrderItem{ProductID: 1, Quantity: 1}
	custom := entity.OrderItem{IsCustom: true, DesignID: 2, Quantity: 1}

	assert.Equal(t, "ORD", OrderCodePrefix([]entity.OrderItem{catalog}))
	assert.Equal(t, "CD", OrderCodePrefix([]entity.OrderItem{custom}))
	assert.Equal(t, "MD", OrderCodePrefix([]entity.OrderItem{catalog, custom}))
	assert.Equal(t, "ORD", OrderCodePrefix(nil))
}

func TestPlaceOrderSuccess(t *testing.T) {
	tx := &fakeOrderTx{
		variants: map[int64][]int64{7: {101}},
		stock:    map[string]int{stockKey(101, "M"): 10},
	}
	store := &fakeOrderStore{tx: tx}
	svc := newTestOrderService(store, nil)

	placed, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3, Email: "ada@example.com"}, validPlaceRequest())
	require.NoError(t, err)

	assert.True(t, store.committed)
	assert.True(t, strings.HasPrefix(placed.OrderCode, "ORD-"))
	require.Len(t, placed.Stock, 1)
	assert.Equal(t, entity.StockDecremented, placed.Stock[0].Outcome)
	assert.Equal(t, 8, tx.stock[stockKey(101, "M")])

	require.NotNil(t, tx.inserted)
	assert.Equal(t, entity.OrderStatusPending, tx.inserted.Status)
	assert.Equal(t, "cod", tx.inserted.PaymentMethod)
	assert.Equal(t, "standard", tx.inserted.ShippingMethod)
	assert.Equal(t, "ada@example.com", tx.inserted.UserEmail)
}

func TestPlaceOrderRedeemsNormalizedDiscount(t *testing.T) {
	tx := &fakeOrderTx{variants: map[int64][]int64{}, stock: map[string]int{}}
	store := &fakeOrderStore{tx: tx}
	svc := newTestOrderService(store, nil)

	req := validPlaceRequest()
	req.DiscountCode = "  summer10 "
	req.DiscountAmount = decimal.NewFromInt(5)
	req.TotalAmount = decimal.NewFromInt(50)

	_, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"SUMMER10"}, tx.redeemed)
	assert.Equal(t, "SUMMER10", tx.inserted.DiscountCode)
}

func TestPlaceOrderExhaustedDiscountAbortsOrder(t *testing.T) {
	tx := &fakeOrderTx{redeemErr: entity.ErrDiscountExhausted}
	store := &fakeOrderStore{tx: tx}
	svc := newTestOrderService(store, nil)

	req := validPlaceRequest()
	req.DiscountCode = "GONE"
	req.DiscountAmount = decimal.NewFromInt(5)
	req.TotalAmount = decimal.NewFromInt(50)

	_, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, req)
	assert.ErrorIs(t, err, entity.ErrDiscountExhausted)
	assert.False(t, store.committed)
}

func TestPlaceOrderInsufficientStockStillPlaces(t *testing.T) {
	tx := &fakeOrderTx{
		variants: map[int64][]int64{7: {101}},
		stock:    map[string]int{stockKey(101, "M"): 1},
	}
	store := &fakeOrderStore{tx: tx}
	svc := newTestOrderService(store, nil)

	placed, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, validPlaceRequest())
	require.NoError(t, err)

	assert.True(t, store.committed)
	require.Len(t, placed.Stock, 1)
	assert.Equal(t, entity.StockInsufficient, placed.Stock[0].Outcome)
	assert.Equal(t, 1, tx.stock[stockKey(101, "M")], "insufficient row must stay untouched")
}

func TestPlaceOrderFallsBackToNextVariant(t *testing.T) {
	tx := &fakeOrderTx{
		variants: map[int64][]int64{7: {101, 102}},
		stock: map[string]int{
			stockKey(101, "M"): 1,
			stockKey(102, "M"): 5,
		},
	}
	store := &fakeOrderStore{tx: tx}
	svc := newTestOrderService(store, nil)

	placed, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, validPlaceRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.StockDecremented, placed.Stock[0].Outcome)
	assert.Equal(t, 1, tx.stock[stockKey(101, "M")])
	assert.Equal(t, 3, tx.stock[stockKey(102, "M")])
}

func TestPlaceOrderCanonicalizesSizeLabels(t *testing.T) {
	tx := &fakeOrderTx{
		variants: map[int64][]int64{7: {101}},
		stock:    map[string]int{stockKey(101, "XS"): 4},
	}
	store := &fakeOrderStore{tx: tx}
	svc := newTestOrderService(store, nil)

	req := validPlaceRequest()
	req.Items[0].Size = "X-SMALL"

	placed, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, req)
	require.NoError(t, err)
	assert.Equal(t, entity.StockDecremented, placed.Stock[0].Outcome)
	assert.Equal(t, 2, tx.stock[stockKey(101, "XS")])
}

func TestPlaceOrderSkipsCustomAndIncompleteItems(t *testing.T) {
	tx := &fakeOrderTx{variants: map[int64][]int64{}, stock: map[string]int{}}
	store := &fakeOrderStore{tx: tx}
	svc := newTestOrderService(store, nil)

	req := validPlaceRequest()
	req.Items = []entity.OrderItem{
		{IsCustom: true, DesignID: 9, Size: "M", Quantity: 1, Price: decimal.NewFromInt(30)},
		{ProductID: 7, Quantity: 1, Price: decimal.NewFromInt(20)}, // no size
	}

	placed, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(placed.OrderCode, "MD-"))
	require.Len(t, placed.Stock, 2)
	assert.Equal(t, entity.StockSkipped, placed.Stock[0].Outcome)
	assert.Equal(t, entity.StockSkipped, placed.Stock[1].Outcome)
}

func TestPlaceOrderRejectsZeroQuantities(t *testing.T) {
	store := &fakeOrderStore{tx: &fakeOrderTx{}}
	svc := newTestOrderService(store, nil)

	req := validPlaceRequest()
	req.Items = []entity.OrderItem{{ProductID: 7, Size: "M", Quantity: 0}}

	_, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, req)
	assert.ErrorIs(t, err, entity.ErrOrderEmpty)
	assert.False(t, store.committed, "nothing may be persisted for an empty order")
}

func TestPlaceOrderRejectsTotalMismatch(t *testing.T) {
	store := &fakeOrderStore{tx: &fakeOrderTx{}}
	svc := newTestOrderService(store, nil)

	req := validPlaceRequest()
	req.TotalAmount = decimal.NewFromInt(60)

	_, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, req)
	assert.ErrorIs(t, err, entity.ErrValidation)
	assert.False(t, store.committed)
}

func TestPlaceOrderRejectsNegativeAmounts(t *testing.T) {
	store := &fakeOrderStore{tx: &fakeOrderTx{}}
	svc := newTestOrderService(store, nil)

	req := validPlaceRequest()
	req.DiscountAmount = decimal.NewFromInt(-1)
	req.TotalAmount = decimal.NewFromInt(56)

	_, err := svc.PlaceOrder(context.Background(), &entity.User{ID: 3}, req)
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestFileRefund(t *testing.T) {
	order := &entity.Order{Code: "ORD-ABC123", UserID: 3, Status: entity.OrderStatusCompleted}
	store := &fakeOrderStore{orders: map[string]*entity.Order{"ORD-ABC123": order}}
	refunds := &fakeRefundStore{existing: map[string]bool{}}
	svc := newTestOrderService(store, refunds)
	user := &entity.User{ID: 3, Email: "ada@example.com"}

	refund, err := svc.FileRefund(context.Background(), user, entity.RefByCode("ORD-ABC123"),
		"2x tee", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, entity.RefundStatusPending, refund.Status)
	assert.Equal(t, "ORD-ABC123", refund.OrderCode)
	assert.Equal(t, "ada@example.com", refund.CustomerEmail)

	// Second request for the same order conflicts.
	refunds.existing["ORD-ABC123"] = true
	_, err = svc.FileRefund(context.Background(), user, entity.RefByCode("ORD-ABC123"),
		"2x tee", decimal.NewFromInt(50))
	assert.ErrorIs(t, err, entity.ErrRefundExists)
}

func TestFileRefundValidation(t *testing.T) {
	order := &entity.Order{Code: "ORD-ABC123", UserID: 3}
	store := &fakeOrderStore{orders: map[string]*entity.Order{"ORD-ABC123": order}}
	svc := newTestOrderService(store, nil)
	user := &entity.User{ID: 3}

	_, err := svc.FileRefund(context.Background(), user, entity.RefByCode("ORD-ABC123"), "   ", decimal.Zero)
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = svc.FileRefund(context.Background(), user, entity.RefByCode("ORD-ABC123"), "2x tee", decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, entity.ErrValidation)

	// Someone else's order is invisible.
	_, err = svc.FileRefund(context.Background(), &entity.User{ID: 4}, entity.RefByCode("ORD-ABC123"), "2x tee", decimal.Zero)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestAdminProcessRefund(t *testing.T) {
	refunds := &fakeRefundStore{existing: map[string]bool{}}
	svc := newTestOrderService(&fakeOrderStore{}, refunds)

	require.NoError(t, svc.AdminProcessRefund(context.Background(), "ORD-ABC123", entity.RefundStatusApproved))
	assert.Equal(t, entity.RefundStatusApproved, refunds.statuses["ORD-ABC123"])

	err := svc.AdminProcessRefund(context.Background(), "ORD-ABC123", "bogus")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestMyOrdersStatusFilter(t *testing.T) {
	svc := newTestOrderService(&fakeOrderStore{}, nil)

	_, err := svc.MyOrders(context.Background(), 3, "bogus")
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = svc.MyOrders(context.Background(), 3, "all")
	assert.NoError(t, err)
}
