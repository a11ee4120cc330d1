package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/service"
)

type AuthHandler struct {
	users       *service.UserService
	frontendURL string
}

func NewAuthHandler(users *service.UserService, frontendURL string) *AuthHandler {
	return &AuthHandler{users: users, frontendURL: frontendURL}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	req := registerRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	result, err := h.users.Register(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return failErr(c, err)
	}

	if result.AlreadyExists {
		return jsonOK(c, http.StatusOK, "Verification email resent. Please check your inbox.", result)
	}
	return jsonOK(c, http.StatusCreated, "Account created. Please verify your email.", result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	req := loginRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	token, user, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Logged in.", map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := currentClaims(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Invalid token.")
	}

	if err := h.users.Logout(c.Request().Context(), claims.Email); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Logged out.", nil)
}

// VerifyEmail handles the link from the verification mail. Browser hits
// redirect back to the storefront; API clients get JSON.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	err := h.users.VerifyEmail(c.Request().Context(), c.QueryParam("token"))

	if returnTo := c.QueryParam("return_to"); returnTo != "" {
		if err != nil {
			return c.Redirect(http.StatusFound, returnTo+"/login?verified=0")
		}
		return c.Redirect(http.StatusFound, returnTo+"/login?verified=1")
	}

	if err != nil {
		return failErr(c, err)
	}
	return jsonOK(c, http.StatusOK, "Email verified. You can now log in.", nil)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	req := emailRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	alreadyVerified, err := h.users.ResendVerification(c.Request().Context(), req.Email)
	if err != nil {
		return failErr(c, err)
	}
	if alreadyVerified {
		return jsonOK(c, http.StatusOK, "Email is already verified. You can log in.", nil)
	}
	return jsonOK(c, http.StatusOK, "Verification email sent.", nil)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	req := emailRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	err := h.users.RequestPasswordReset(c.Request().Context(), req.Email, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return failErr(c, err)
	}

	// Same answer whether or not the account exists.
	return jsonOK(c, http.StatusOK, "If that email exists, a reset link has been sent.", nil)
}

type resetTokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) VerifyResetToken(c echo.Context) error {
	req := resetTokenRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	if err := h.users.VerifyResetToken(c.Request().Context(), req.Token); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Token is valid.", nil)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	req := resetPasswordRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request payload.")
	}

	if err := h.users.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return failErr(c, err)
	}

	return jsonOK(c, http.StatusOK, "Password has been reset. Please log in.", nil)
}
