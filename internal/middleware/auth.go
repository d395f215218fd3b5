package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/dashboard/internal/authz"
	"github.com/mkravets/dashboard/internal/tokens"
)

const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeForbidden    = "FORBIDDEN"
)

type Auth struct {
	Codec *tokens.Codec
}

func NewAuth(codec *tokens.Codec) *Auth {
	return &Auth{Codec: codec}
}

// RequireAuth resolves the caller's identity from a bearer access token
// (header first, cookie fallback) and stores it on the echo context. The
// 401 body carries a machine code so clients can tell "silently refresh"
// (TOKEN_EXPIRED) apart from "force re-login" (INVALID_TOKEN).
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return reject(c, http.StatusUnauthorized, CodeUnauthorized, "missing access token")
		}

		claims, err := m.Codec.ParseAccess(tokenStr)
		if err != nil {
			if errors.Is(err, tokens.ErrExpired) {
				return reject(c, http.StatusUnauthorized, CodeTokenExpired, "access token expired")
			}
			return reject(c, http.StatusUnauthorized, CodeInvalidToken, "invalid access token")
		}

		c.Set("user_id", claims.Subject)
		c.Set("email", claims.Email)
		c.Set("role", authz.Role(claims.Role))
		return next(c)
	}
}

// RequirePermission consults the static permission table for the resolved
// role. Run it after RequireAuth.
func (m *Auth) RequirePermission(module authz.Module, action authz.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(authz.Role)
			if !ok {
				return reject(c, http.StatusUnauthorized, CodeUnauthorized, "identity not resolved")
			}
			if !authz.Can(role, module, action) {
				return reject(c, http.StatusForbidden, CodeForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

func reject(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{"code": code, "message": message})
}
