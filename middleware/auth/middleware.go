package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	authsvc "github.com/quilldesk/quilldesk/services/auth"
	"github.com/quilldesk/quilldesk/services/cache"
	"github.com/quilldesk/quilldesk/services/token"
)

const (
	UserIDKey   = "_auth_user_id"
	DeviceIDKey = "_auth_device_id"
	ClaimsKey   = "_auth_claims"
)

// RequireAuth validates the bearer access token and then checks it
// against the shared token cache. A missing entry, the kick-out
// sentinel, or any value other than the presented token all mean the
// token is no longer current, regardless of its own signature and
// expiry.
func RequireAuth(tokens *token.Service, store cache.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				switch err {
				case token.ErrExpiredToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Access token has expired")
				case token.ErrMalformedToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Malformed access token")
				case token.ErrInvalidSignature:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid access token signature")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid access token")
				}
			}

			cached, found, err := store.Get(authsvc.TokenCacheKey(claims.UserID, claims.DeviceID))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check token status")
			}
			if !found || cached != tokenString {
				if cached == authsvc.KickedOutSentinel {
					return echo.NewHTTPError(http.StatusUnauthorized, "Signed in on another device")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token is no longer valid")
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(DeviceIDKey, claims.DeviceID)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

func GetDeviceID(c echo.Context) string {
	if deviceID, ok := c.Get(DeviceIDKey).(string); ok {
		return deviceID
	}
	return ""
}

func GetClaims(c echo.Context) *token.Claims {
	if claims, ok := c.Get(ClaimsKey).(*token.Claims); ok {
		return claims
	}
	return nil
}
