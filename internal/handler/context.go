package handler

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"eventhub/internal/auth"
)

// currentClaims extracts the signed-in identity set by the JWT middleware.
func currentClaims(c echo.Context) (*auth.Claims, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// bearerToken returns the raw token from the Authorization header, or ""
// when none was sent.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// requireAdmin returns the claims only when the caller carries the admin role.
func requireAdmin(c echo.Context) (*auth.Claims, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}
	return claims, nil
}
