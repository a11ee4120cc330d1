package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	req := service.PlaceOrderRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	user := &entity.User{ID: claims.UserID, Email: claims.Email}
	placed, err := h.orders.PlaceOrder(c.Request().Context(), user, &req)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusCreated, "Order placed successfully.", placed)
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	orders, err := h.orders.MyOrders(c.Request().Context(), claims.UserID, c.QueryParam("status"))
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"orders": orders})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	ref := entity.ParseOrderRef(c.Param("ref"))
	order, err := h.orders.GetOrder(c.Request().Context(), claims.UserID, ref)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"order": order})
}

type refundRequest struct {
	Items        string          `json:"items"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

func (h *OrderHandler) FileRefund(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	req := refundRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	user := &entity.User{ID: claims.UserID, Email: claims.Email}
	ref := entity.ParseOrderRef(c.Param("ref"))
	refund, err := h.orders.FileRefund(c.Request().Context(), user, ref, req.Items, req.RefundAmount)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusCreated, "Refund request submitted.", map[string]interface{}{"refund": refund})
}

func (h *OrderHandler) AdminListOrders(c echo.Context) error {
	var userID int64
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid user_id.")
		}
		userID = id
	}

	orders, err := h.orders.AdminListOrders(c.Request().Context(), c.QueryParam("status"), userID)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"orders": orders})
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) AdminUpdateStatus(c echo.Context) error {
	req := orderStatusRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	ref := entity.ParseOrderRef(c.Param("ref"))
	if err := h.orders.AdminUpdateStatus(c.Request().Context(), ref, req.Status); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Order status updated.", nil)
}

type refundDecisionRequest struct {
	OrderCode string `json:"order_code"`
	Status    string `json:"status"`
}

func (h *OrderHandler) AdminProcessRefund(c echo.Context) error {
	req := refundDecisionRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	if err := h.orders.AdminProcessRefund(c.Request().Context(), req.OrderCode, req.Status); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Refund processed.", nil)
}
