package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vendaria/vendaria/internal/apperror"
	"github.com/vendaria/vendaria/internal/token"
)

// contextKeyClaims is the Echo context key holding the verified token claims.
const contextKeyClaims = "auth_claims"

// bearerPrefix is the required Authorization scheme.
const bearerPrefix = "Bearer "

// RequireToken returns middleware that extracts the bearer token from the
// Authorization header, verifies it, and injects the claims into the request
// context. A missing or malformed header is rejected before the codec runs;
// all rejections are uniform 401s that never say why.
func RequireToken(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				return apperror.NewUnauthorized("no valid token provided")
			}

			claims, err := codec.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				return apperror.NewUnauthorized("invalid token")
			}

			c.Set(contextKeyClaims, claims)
			return next(c)
		}
	}
}

// GetClaims retrieves the verified claims from the Echo context. The second
// return is false if the request did not pass through RequireToken.
func GetClaims(c echo.Context) (token.Claims, bool) {
	claims, ok := c.Get(contextKeyClaims).(token.Claims)
	return claims, ok
}
