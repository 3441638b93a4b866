package middleware // middleware holds the reusable echo middleware of the API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/utils"
)

// AccessVerifier is satisfied by *utils.TokenService.
type AccessVerifier interface {
	VerifyAccessToken(raw string) (utils.AccessClaims, error)
}

// JWTAuth validates the Bearer access token and binds the user id and
// email to the echo context (see UserID and Email). A missing header
// yields 401 "Unauthorized"; a token that does not verify yields 401
// "Invalid or expired token".
func JWTAuth(tokens AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := bearer(auth)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid or expired token"})
			}
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextEmail, claims.Email)
			return next(c)
		}
	}
}

// bearer extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearer(h string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
