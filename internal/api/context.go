package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"nevermore-backend/internal/service"
)

// currentClaims pulls the JWT claims that the echo-jwt middleware stored
// on the request context.
func currentClaims(c echo.Context) (*service.JwtCustomClaims, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*service.JwtCustomClaims)
	return claims, ok
}

// RequireSession rejects tokens whose server-side session has been
// revoked (logout, email change).
func RequireSession(users *service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := currentClaims(c)
			if !ok {
				return fail(c, http.StatusUnauthorized, "Invalid token.")
			}
			raw := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			valid, err := users.SessionValid(c.Request().Context(), claims.Email, raw)
			if err != nil || !valid {
				return fail(c, http.StatusUnauthorized, "Session expired. Please log in again.")
			}
			return next(c)
		}
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := currentClaims(c)
		if !ok || claims.Role != "admin" {
			return fail(c, http.StatusForbidden, "Admin access required.")
		}
		return next(c)
	}
}
