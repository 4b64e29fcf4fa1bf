package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const HeaderAPIKey = "X-API-Key"

// APIKey guards a route group with a shared key sent in X-API-Key. An empty
// key disables the check.
func APIKey(key string) echo.MiddlewareFunc {
	return echomw.KeyAuthWithConfig(echomw.KeyAuthConfig{
		KeyLookup: "header:" + HeaderAPIKey,
		Skipper: func(echo.Context) bool {
			return key == ""
		},
		Validator: func(given string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(given), []byte(key)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
		},
	})
}
