package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
)

const ctxIdentityKey = "auth.identity"

type VerifyFunc func(ctx context.Context, token string) (session.Identity, error)

// AccessGuard authenticates the request with the access token from the
// Authorization header or, failing that, the access cookie.
func AccessGuard(verify VerifyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := accessToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("access token missing"))
			}
			id, err := verify(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, session.ErrInputMissing) {
					return c.JSON(http.StatusUnauthorized, errorJSON("access token missing"))
				}
				return c.JSON(http.StatusUnauthorized, errorJSON("invalid or expired token"))
			}
			c.Set(ctxIdentityKey, id)
			return next(c)
		}
	}
}

// RoleGuard admits identities whose role is one of roles. It must run
// after AccessGuard.
func RoleGuard(roles ...session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON(session.ErrForbidden.Error()))
		}
	}
}

func IdentityFrom(c echo.Context) (session.Identity, bool) {
	id, ok := c.Get(ctxIdentityKey).(session.Identity)
	return id, ok
}

func accessToken(c echo.Context) string {
	if v := c.Request().Header.Get(echo.HeaderAuthorization); v != "" {
		parts := strings.SplitN(v, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		// other schemes belong to upstream proxies; the cookie still counts
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
