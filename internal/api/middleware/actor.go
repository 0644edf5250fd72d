package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/service-requests/internal/core/domain"
)

const (
	// HeaderActorID carries the chat account id when no JWT secret is
	// configured, i.e. when the bot front end is the only trusted caller.
	HeaderActorID = "X-Actor-ID"

	KeyActorID = "actor_id"
	KeyRole    = "role"
)

// UserLookup resolves the acting user's stored role.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// Identify establishes who is calling and stores the id under KeyActorID.
// With a secret, the id is the subject of an HS256 bearer token; otherwise
// it is read from the X-Actor-ID header.
func Identify(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var raw string
			if jwtSecret == "" {
				raw = c.Request().Header.Get(HeaderActorID)
				if raw == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderActorID+" header")
				}
			} else {
				sub, err := bearerSubject(c.Request().Header.Get("Authorization"), jwtSecret)
				if err != nil {
					return err
				}
				raw = sub
			}

			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil || id <= 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid actor id")
			}
			c.Set(KeyActorID, id)
			return next(c)
		}
	}
}

// LoadActor runs after Identify and stores the actor's role under KeyRole.
// Unregistered actors are rejected: they must POST /v1/users first.
func LoadActor(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := c.Get(KeyActorID).(int64)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing actor identity")
			}
			u, err := users.GetUser(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown user, register first")
				}
				return err
			}
			c.Set(KeyRole, u.Role)
			return next(c)
		}
	}
}

func bearerSubject(header, secret string) (string, error) {
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], &claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return claims.Subject, nil
}
