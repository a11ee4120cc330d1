package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"nevermore-backend/internal/service"
)

type DiscountHandler struct {
	discounts *service.DiscountService
}

func NewDiscountHandler(discounts *service.DiscountService) *DiscountHandler {
	return &DiscountHandler{discounts: discounts}
}

type validateDiscountRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (h *DiscountHandler) Validate(c echo.Context) error {
	req := validateDiscountRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	quote, err := h.discounts.Validate(c.Request().Context(), req.Code, req.Subtotal)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Discount code is valid.", quote)
}

// Quote is the GET variant of Validate for storefronts that check a code
// as the user types.
func (h *DiscountHandler) Quote(c echo.Context) error {
	subtotal := decimal.Zero
	if raw := c.QueryParam("subtotal"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid subtotal.")
		}
		subtotal = parsed
	}

	quote, err := h.discounts.Validate(c.Request().Context(), c.QueryParam("code"), subtotal)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Discount code is valid.", quote)
}

func (h *DiscountHandler) AdminList(c echo.Context) error {
	discounts, err := h.discounts.List(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"discounts": discounts})
}

func (h *DiscountHandler) AdminCreate(c echo.Context) error {
	req := service.CreateDiscountRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	discount, err := h.discounts.Create(c.Request().Context(), &req)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusCreated, "Discount code created.", discount)
}

func (h *DiscountHandler) AdminDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid discount id.")
	}

	if err := h.discounts.Delete(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Discount code deleted.", nil)
}
