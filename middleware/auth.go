package middleware

import (
	"net/http"
	"strings"

	"github.com/Madhav-Gupta-28/olist-insights/utils"
	"github.com/labstack/echo/v4"
)

// SubjectKey is the echo context key holding the authenticated token subject.
const SubjectKey = "subject"

// BearerAuth rejects requests without a valid HS256 token signed with secret.
func BearerAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "No authorization header",
				})
			}

			// Extract the token from the "Bearer" scheme
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Invalid authorization header format",
				})
			}

			claims, err := utils.ValidateJWT(parts[1], secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Invalid token",
				})
			}

			c.Set(SubjectKey, claims.Subject)
			return next(c)
		}
	}
}
