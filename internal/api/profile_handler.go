package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/service"
)

type ProfileHandler struct {
	users       *service.UserService
	frontendURL string
}

func NewProfileHandler(users *service.UserService, frontendURL string) *ProfileHandler {
	return &ProfileHandler{users: users, frontendURL: frontendURL}
}

func (h *ProfileHandler) Show(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	user, err := h.users.Profile(c.Request().Context(), claims.UserID)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "", map[string]interface{}{"user": user})
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *ProfileHandler) Update(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	req := updateProfileRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), claims.UserID, req.FirstName, req.LastName)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Profile updated.", map[string]interface{}{"user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	req := changePasswordRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	err := h.users.ChangePassword(c.Request().Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Password changed.", nil)
}

func (h *ProfileHandler) RequestEmailChange(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	req := emailRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	if err := h.users.RequestEmailChange(c.Request().Context(), claims.UserID, req.Email); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Confirmation sent to the new address.", nil)
}

// VerifyEmailChange is hit from the confirmation mail, so it is public
// and redirects browsers back to the storefront.
func (h *ProfileHandler) VerifyEmailChange(c echo.Context) error {
	err := h.users.VerifyEmailChange(c.Request().Context(), c.QueryParam("token"))

	if h.frontendURL != "" {
		if err != nil {
			return c.Redirect(http.StatusFound, h.frontendURL+"/login?email_changed=0")
		}
		return c.Redirect(http.StatusFound, h.frontendURL+"/login?email_changed=1")
	}

	if err != nil {
		return failErr(c, err)
	}
	return jsonOK(c, http.StatusOK, "Email updated. Please log in again.", nil)
}
