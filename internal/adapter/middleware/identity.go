package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderAccountID carries the authenticated caller identity. The gateway in
// front of this service authenticates the caller and sets the header; the
// core trusts it as the sole authorization input and threads it into every
// state-mutating operation explicitly.
const HeaderAccountID = "Ax-Account-Id"

const accountIDContextKey = "account_id"

// RequireAccount rejects mutating requests without a well-formed
// Ax-Account-Id and stores the identity on the echo context.
func RequireAccount() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account := strings.TrimSpace(c.Request().Header.Get(HeaderAccountID))
			if account == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderAccountID})
			}
			if !validAccountID(account) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderAccountID})
			}
			if reservedAccountID(account) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "reserved " + HeaderAccountID})
			}
			c.Set(accountIDContextKey, account)
			return next(c)
		}
	}
}

// AccountID returns the caller identity stored by RequireAccount, empty when
// the middleware did not run.
func AccountID(c echo.Context) string {
	if v, ok := c.Get(accountIDContextKey).(string); ok {
		return v
	}
	return ""
}
