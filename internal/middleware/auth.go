package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"hospital-management-api/internal/auth"
	"hospital-management-api/internal/booking"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

// context keys
const (
	UserIDKey = "uid"
	RoleKey   = "role"
)

// Users resolves the account a token was issued to.
type Users interface {
	UserByID(ctx context.Context, id string) (*model.User, error)
}

// Auth checks the bearer token and that its user still exists. The role comes
// from the stored account, so a deleted or changed account takes effect at
// once. Browsers cannot set headers on a websocket handshake, so a ?token=
// query parameter is accepted as well.
func Auth(secret string, users Users) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var raw string
			if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
				raw = bearer(h)
			} else {
				raw = c.QueryParam("token")
			}
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Denied")
			}

			claims, err := auth.ParseToken(raw, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token invalid")
			}

			u, err := users.UserByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, store.ErrNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token invalid")
			}
			if err != nil {
				return err
			}

			c.Set(UserIDKey, u.ID)
			c.Set(RoleKey, u.Role)
			return next(c)
		}
	}
}

// bearer returns the token of an "Authorization: Bearer <token>" header. The
// scheme is case-insensitive.
func bearer(h string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

func Role(c echo.Context) model.Role {
	r, _ := c.Get(RoleKey).(model.Role)
	return r
}

// ActorFrom returns the caller set by Auth.
func ActorFrom(c echo.Context) booking.Actor {
	return booking.Actor{UserID: UserID(c), Role: Role(c)}
}

// RequireRole lets the request through when the caller holds one of roles.
// It must run after Auth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			have := Role(c)
			for _, r := range roles {
				if have == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Access denied")
		}
	}
}
