package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/verarta/artledger/internal/server/auth"
)

const (
	headerAuthorization = "Authorization"
	headerAPIKey        = "X-Api-Key"
	bearerScheme        = "bearer"

	callerContextKey = "caller"
)

// RequestID propagates an incoming X-Request-ID or generates a fresh one,
// exposing it on the response so error bodies and logs correlate.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(c)
		}
	}
}

// RequireCaller resolves the request's identity: the service API key (checked
// against its bcrypt hash) yields the privileged service caller, a bearer
// token yields an account caller. Requests with neither are rejected.
func (s *Server) RequireCaller() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key := c.Request().Header.Get(headerAPIKey); key != "" {
				if s.config.ServiceAPIKeyHash == "" || !auth.CheckServiceKey(s.config.ServiceAPIKeyHash, key) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
				}
				c.Set(callerContextKey, auth.Caller{IsService: true})
				return next(c)
			}

			token := extractBearerToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization")
			}

			account, err := auth.AccountFromToken(token, []byte(s.config.SecretKey))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(callerContextKey, auth.Caller{Account: account})
			return next(c)
		}
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

func callerFrom(c echo.Context) auth.Caller {
	caller, _ := c.Get(callerContextKey).(auth.Caller)
	return caller
}
