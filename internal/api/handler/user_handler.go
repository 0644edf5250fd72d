package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

// UserHandler handles registration and role administration.
type UserHandler struct {
	service ports.RequestService
}

func NewUserHandler(service ports.RequestService) *UserHandler {
	return &UserHandler{service: service}
}

// Register handles POST /v1/users. The caller registers itself: the id is the
// authenticated actor, the body only carries display data.
//
// @Summary      Register the calling user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     ActorID
// @Param        body  body      registerUserRequest  false  "Display data"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Register(c echo.Context) error {
	id, err := actorID(c)
	if err != nil {
		return err
	}
	var req registerUserRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
	}

	u, err := h.service.RegisterOrGetUser(c.Request().Context(), ports.RegisterUserInput{
		ID:          id,
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// Get handles GET /v1/users/:id. Users may read themselves; managers anyone.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     ActorID
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if id != actor && actorRole(c) != domain.RoleManager {
		return domain.ErrForbidden
	}

	u, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// SetRole handles PUT /v1/users/:id/role.
//
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     ActorID
// @Param        id    path      int             true  "User id"
// @Param        body  body      setRoleRequest  true  "New role"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      422   {object}  ErrorResponse
// @Router       /v1/users/{id}/role [put]
func (h *UserHandler) SetRole(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	u, err := h.service.SetRole(c.Request().Context(), actor, id, domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// ListWorkers handles GET /v1/workers: the masters a manager can assign.
//
// @Summary      List assignable workers
// @Tags         users
// @Produce      json
// @Security     ActorID
// @Success      200  {object}  listResponse[userResponse]
// @Failure      403  {object}  ErrorResponse
// @Router       /v1/workers [get]
func (h *UserHandler) ListWorkers(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	workers, err := h.service.ListWorkers(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserList(workers))
}
