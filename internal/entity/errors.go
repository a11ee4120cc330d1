package entity

import "errors"

// Business errors returned by the service layer. Handlers map these to
// HTTP status codes with errors.Is.
var (
	ErrValidation          = errors.New("invalid input")
	ErrOrderEmpty          = errors.New("order must have at least one item")
	ErrPlacementFailed     = errors.New("failed to place order")
	ErrOrderNotFound       = errors.New("order not found")
	ErrRefundExists        = errors.New("refund already requested for this order")
	ErrRefundNotFound      = errors.New("refund request not found")
	ErrDiscountInvalid     = errors.New("invalid discount code")
	ErrDiscountExpired     = errors.New("discount code has expired")
	ErrDiscountExhausted   = errors.New("discount code has reached maximum uses")
	ErrDiscountMinPurchase = errors.New("minimum purchase not met")
	ErrDiscountExists      = errors.New("discount code already exists")
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("invalid category slug")
	ErrItemNotFound        = errors.New("item not found")
	ErrDesignNotFound      = errors.New("design not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrTokenInvalid        = errors.New("invalid or expired token")
	ErrMailDelivery        = errors.New("could not send email")
)
