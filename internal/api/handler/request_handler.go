package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
	"github.com/99minutos/service-requests/pkg/metrics"
)

// RequestHandler exposes the request lifecycle. Photos may be referenced by
// a prior upload or sent inline as a multipart "photo" file.
type RequestHandler struct {
	service ports.RequestService
	media   ports.MediaStore
}

func NewRequestHandler(service ports.RequestService, media ports.MediaStore) *RequestHandler {
	return &RequestHandler{service: service, media: media}
}

// Create handles POST /v1/requests. The whole draft arrives in one call.
//
// @Summary      Submit a service request
// @Tags         requests
// @Accept       json,mpfd
// @Produce      json
// @Security     ActorID
// @Param        Idempotency-Key  header    string                false  "Key that makes a redelivered submission return the original id"
// @Param        body             body      createRequestRequest  true   "Problem description and optional photo"
// @Success      201              {object}  createRequestResponse
// @Success      200              {object}  createRequestResponse  "Replay of an earlier submission"
// @Failure      400              {object}  ErrorResponse
// @Failure      422              {object}  ErrorResponse
// @Failure      503              {object}  ErrorResponse
// @Router       /v1/requests [post]
func (h *RequestHandler) Create(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	ref, err := formPhoto(c, h.media, ports.MediaBefore)
	if err != nil {
		return err
	}
	if ref != "" {
		req.PhotoBefore = ref
	}

	key := c.Request().Header.Get("Idempotency-Key")
	res, err := h.service.CreateRequest(c.Request().Context(), ports.CreateRequestInput{
		ClientID:       actor,
		ProblemText:    req.ProblemText,
		PhotoBefore:    req.PhotoBefore,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}

	if key != "" {
		result := "miss"
		if res.AlreadyExisted {
			result = "hit"
		}
		metrics.IdempotencyTotal.WithLabelValues(result).Inc()
	}

	code := http.StatusCreated
	if res.AlreadyExisted {
		code = http.StatusOK
	} else {
		photo := "no"
		if req.PhotoBefore != "" {
			photo = "yes"
		}
		metrics.RequestsCreatedTotal.WithLabelValues(photo).Inc()
	}
	return c.JSON(code, createRequestResponse{
		ID:             res.RequestID,
		AlreadyExisted: res.AlreadyExisted,
		Links:          linksFor(res.RequestID),
	})
}

// Mine handles GET /v1/requests/mine: the requests the caller raised.
//
// @Summary      List my requests
// @Tags         requests
// @Produce      json
// @Security     ActorID
// @Success      200  {object}  listResponse[requestResponse]
// @Router       /v1/requests/mine [get]
func (h *RequestHandler) Mine(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	rs, err := h.service.ListMyRequests(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRequestList(rs))
}

// List handles GET /v1/requests?role=&status=. The view follows the caller's
// stored role; an explicit role must match it.
//
// @Summary      List requests visible to the caller
// @Tags         requests
// @Produce      json
// @Security     ActorID
// @Param        role    query     string  false  "client, master or manager"
// @Param        status  query     string  false  "new, assigned, in_progress, done or confirmed"
// @Success      200     {object}  listResponse[requestResponse]
// @Failure      400     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Router       /v1/requests [get]
func (h *RequestHandler) List(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	in := ports.ListForRoleInput{UserID: actor}
	if r := c.QueryParam("role"); r != "" {
		role, err := domain.ParseRole(r)
		if err != nil {
			return err
		}
		in.Role = role
	}
	if s := c.QueryParam("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			return err
		}
		in.Status = status
	}

	rs, err := h.service.ListRequestsForRole(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRequestList(rs))
}

// Get handles GET /v1/requests/:id.
//
// @Summary      Get a request
// @Tags         requests
// @Produce      json
// @Security     ActorID
// @Param        id   path      int  true  "Request id"
// @Success      200  {object}  requestResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/requests/{id} [get]
func (h *RequestHandler) Get(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.service.GetRequest(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRequestResponse(r))
}

// History handles GET /v1/requests/:id/history.
//
// @Summary      Get the lifecycle history of a request
// @Tags         requests
// @Produce      json
// @Security     ActorID
// @Param        id   path      int  true  "Request id"
// @Success      200  {object}  listResponse[eventResponse]
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/requests/{id}/history [get]
func (h *RequestHandler) History(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	events, err := h.service.History(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventList(events))
}

// Assign handles POST /v1/requests/:id/assign.
//
// @Summary      Assign a new request to a worker
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     ActorID
// @Param        id    path      int            true  "Request id"
// @Param        body  body      assignRequest  true  "Worker"
// @Success      200   {object}  requestResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /v1/requests/{id}/assign [post]
func (h *RequestHandler) Assign(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	r, err := h.service.Assign(c.Request().Context(), actor, id, req.WorkerID)
	if err != nil {
		countTransitionError(err)
		return err
	}
	metrics.TransitionsTotal.WithLabelValues(string(domain.ActionAssign), string(r.Status)).Inc()
	return c.JSON(http.StatusOK, toRequestResponse(r))
}

// Advance handles POST /v1/requests/:id/actions/:action for start, complete,
// confirm and reject.
//
// @Summary      Advance a request through its lifecycle
// @Tags         requests
// @Accept       json,mpfd
// @Produce      json
// @Security     ActorID
// @Param        id      path      int             true   "Request id"
// @Param        action  path      string          true   "start, complete, confirm or reject"
// @Param        body    body      advanceRequest  false  "complete: photo_after"
// @Success      200     {object}  requestResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      409     {object}  ErrorResponse
// @Router       /v1/requests/{id}/actions/{action} [post]
func (h *RequestHandler) Advance(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	action, err := domain.ParseAction(c.Param("action"))
	if err != nil {
		return err
	}
	var req advanceRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
	}
	if action == domain.ActionComplete {
		ref, err := formPhoto(c, h.media, ports.MediaAfter)
		if err != nil {
			return err
		}
		if ref != "" {
			req.PhotoAfter = ref
		}
	}

	r, err := h.service.AdvanceStatus(c.Request().Context(), ports.AdvanceInput{
		ActorID:   actor,
		RequestID: id,
		Action:    action,
		PhotoRef:  req.PhotoAfter,
	})
	if err != nil {
		countTransitionError(err)
		return err
	}
	metrics.TransitionsTotal.WithLabelValues(string(action), string(r.Status)).Inc()
	return c.JSON(http.StatusOK, toRequestResponse(r))
}

func countTransitionError(err error) {
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		reason = "invalid_input"
	case errors.Is(err, domain.ErrInvalidTransition):
		reason = "invalid_transition"
	case errors.Is(err, domain.ErrStorageFailure):
		reason = "storage"
	}
	metrics.TransitionErrorsTotal.WithLabelValues(reason).Inc()
}
