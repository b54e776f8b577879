package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"lumisync/internal/usecase"
	"lumisync/pkg/logger"
)

type AuthMiddleware struct {
	verifier usecase.TokenVerifier
}

func NewAuthMiddleware(verifier usecase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate requires a bearer token and stores its uid under "uid".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		return m.verify(c, next, token)
	}
}

// AuthenticateWebSocket also accepts the token as a "token" query parameter,
// since browsers cannot set headers on a websocket handshake.
func (m *AuthMiddleware) AuthenticateWebSocket(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
			token, ok := bearerToken(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
			}
			return m.verify(c, next, token)
		}

		token := c.QueryParam("token")
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication token is required")
		}
		return m.verify(c, next, token)
	}
}

func (m *AuthMiddleware) verify(c echo.Context, next echo.HandlerFunc, token string) error {
	uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil {
		logger.Debug("Token verification failed: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	c.Set("uid", uid)
	return next(c)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
