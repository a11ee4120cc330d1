package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/entity"
)

func jsonOK(c echo.Context, code int, message string, data interface{}) error {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(code, body)
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]interface{}{"success": false, "message": message})
}

// failErr maps business errors onto HTTP status codes. Placement and
// store failures stay opaque to the caller.
func failErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrOrderEmpty),
		errors.Is(err, entity.ErrDiscountExpired),
		errors.Is(err, entity.ErrDiscountExhausted),
		errors.Is(err, entity.ErrDiscountMinPurchase),
		errors.Is(err, entity.ErrCategoryNotFound),
		errors.Is(err, entity.ErrEmailTaken),
		errors.Is(err, entity.ErrUsernameTaken),
		errors.Is(err, entity.ErrTokenInvalid):
		return fail(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, entity.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, entity.ErrEmailNotVerified):
		return fail(c, http.StatusForbidden, "Please verify your email before logging in.")

	case errors.Is(err, entity.ErrOrderNotFound),
		errors.Is(err, entity.ErrProductNotFound),
		errors.Is(err, entity.ErrItemNotFound),
		errors.Is(err, entity.ErrDesignNotFound),
		errors.Is(err, entity.ErrUserNotFound),
		errors.Is(err, entity.ErrRefundNotFound),
		errors.Is(err, entity.ErrDiscountInvalid):
		return fail(c, http.StatusNotFound, err.Error())

	case errors.Is(err, entity.ErrRefundExists),
		errors.Is(err, entity.ErrDiscountExists):
		return fail(c, http.StatusConflict, err.Error())

	case errors.Is(err, entity.ErrPlacementFailed):
		return fail(c, http.StatusInternalServerError, "Failed to place order.")

	case errors.Is(err, entity.ErrMailDelivery):
		return fail(c, http.StatusInternalServerError, "Could not send email. Please try again later.")

	default:
		return fail(c, http.StatusInternalServerError, "Internal server error.")
	}
}
