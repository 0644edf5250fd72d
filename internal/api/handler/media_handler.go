package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/service-requests/internal/core/ports"
)

const mediaPrefix = "/v1/media/"

// MediaHandler accepts photo uploads ahead of the request or action that
// references them.
type MediaHandler struct {
	store   ports.MediaStore
	service ports.RequestService
}

func NewMediaHandler(store ports.MediaStore, service ports.RequestService) *MediaHandler {
	return &MediaHandler{store: store, service: service}
}

// Upload handles POST /v1/media.
//
// @Summary      Upload a photo
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Security     ActorID
// @Param        kind   formData  string  true  "before or after"
// @Param        photo  formData  file    true  "Image file"
// @Success      201    {object}  mediaResponse
// @Failure      400    {object}  ErrorResponse
// @Router       /v1/media [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	kind := ports.MediaKind(c.FormValue("kind"))
	if kind != ports.MediaBefore && kind != ports.MediaAfter {
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be before or after")
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo file is required")
	}
	ref, err := saveUpload(c.Request().Context(), h.store, kind, fh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mediaResponse{
		Ref:  ref,
		Kind: string(kind),
		URL:  mediaPrefix + ref,
	})
}

// Download handles GET /v1/media/*.
//
// @Summary      Download a photo
// @Tags         media
// @Produce      octet-stream
// @Security     ActorID
// @Param        ref  path  string  true  "Photo reference"
// @Success      200
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/media/{ref} [get]
func (h *MediaHandler) Download(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	ref := strings.TrimPrefix(c.Param("*"), "/")
	if err := h.service.AuthorizePhoto(c.Request().Context(), actor, ref); err != nil {
		return err
	}
	rc, contentType, err := h.store.Open(c.Request().Context(), ref)
	if err != nil {
		return err
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, contentType, rc)
}

// saveUpload stores one multipart file and returns its reference.
func saveUpload(ctx context.Context, store ports.MediaStore, kind ports.MediaKind, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer f.Close()

	return store.Save(ctx, kind, f)
}

// formPhoto stores the optional "photo" file of a multipart request. It
// returns an empty reference when the request carries none.
func formPhoto(c echo.Context, store ports.MediaStore, kind ports.MediaKind) (string, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return "", nil
	}
	fh, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	if store == nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "photo uploads are not enabled")
	}
	return saveUpload(c.Request().Context(), store, kind, fh)
}
