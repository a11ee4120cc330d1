package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/service"
)

type StockHandler struct {
	stock *service.StockService
}

func NewStockHandler(stock *service.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

func (h *StockHandler) Availability(c echo.Context) error {
	variantID, err := strconv.ParseInt(c.QueryParam("variant_id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid variant_id.")
	}

	availability, err := h.stock.CheckAvailability(c.Request().Context(), variantID, c.QueryParam("size"))
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", availability)
}

type validateCartRequest struct {
	Items []service.CartItem `json:"items"`
}

func (h *StockHandler) ValidateCart(c echo.Context) error {
	req := validateCartRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	statuses, warnings, err := h.stock.ValidateCart(c.Request().Context(), req.Items)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{
		"items":    statuses,
		"warnings": warnings,
	})
}

// RemoveFromCart is an acknowledgement only: cart state lives in the
// client, the backend has nothing to release.
func (h *StockHandler) RemoveFromCart(c echo.Context) error {
	return jsonOK(c, http.StatusOK, "Item removed from cart.", nil)
}

type confirmStockRequest struct {
	VariantID int64  `json:"variant_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"qty"`
}

func (h *StockHandler) ConfirmStock(c echo.Context) error {
	req := confirmStockRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	available, err := h.stock.ConfirmStock(c.Request().Context(), req.VariantID, req.Size, req.Quantity)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Stock confirmed.", map[string]interface{}{"available": available})
}
