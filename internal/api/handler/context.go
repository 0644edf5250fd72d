package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/service-requests/internal/api/middleware"
	"github.com/99minutos/service-requests/internal/core/domain"
)

// actorID returns the caller identified by the Identify middleware. The
// presence check guards against a route registered without it.
func actorID(c echo.Context) (int64, error) {
	id, ok := c.Get(middleware.KeyActorID).(int64)
	if !ok || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing actor identity")
	}
	return id, nil
}

func actorRole(c echo.Context) domain.Role {
	role, _ := c.Get(middleware.KeyRole).(domain.Role)
	return role
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
