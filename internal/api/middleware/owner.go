package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Owner restricts a route to the user the presence session belongs to. The
// control API is a per-device surface: a valid token for a different account
// must not read this session's peers or feed it positions. localUserID is
// resolved lazily because the session binds its identity after the router is
// built.
func Owner(localUserID func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("user_id").(string)
			owner := localUserID()
			if owner == "" || userID != owner {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
