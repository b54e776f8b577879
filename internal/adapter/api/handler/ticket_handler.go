package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"lumisync/internal/domain/entity"
	"lumisync/internal/usecase"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
	"lumisync/pkg/response"
)

type TicketHandler struct {
	ticketUseCase  *usecase.TicketUseCase
	maxUploadBytes int64
}

func NewTicketHandler(ticketUseCase *usecase.TicketUseCase, maxUploadBytes int64) *TicketHandler {
	return &TicketHandler{
		ticketUseCase:  ticketUseCase,
		maxUploadBytes: maxUploadBytes,
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open pending closed"`
}

func (h *TicketHandler) Create(c echo.Context) error {
	kind, err := ticketKind(c)
	if err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	input := usecase.CreateTicketInput{
		Description: c.FormValue("description"),
	}

	file, err := c.FormFile("image")
	switch {
	case err == http.ErrMissingFile, err == http.ErrNotMultipart:
	case err != nil:
		return response.Error(c, errors.BadRequest("Invalid image upload", err))
	default:
		if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
			logger.Warn("Ticket image too large: %d bytes (max: %d)", file.Size, h.maxUploadBytes)
			return response.Error(c, errors.BadRequest(fmt.Sprintf("Image exceeds maximum allowed size (%d bytes)", h.maxUploadBytes), nil))
		}
		src, err := file.Open()
		if err != nil {
			return response.Error(c, errors.BadRequest("Invalid image upload", err))
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return response.Error(c, errors.BadRequest("Invalid image upload", err))
		}
		input.Image = data
		input.ImageContentType = file.Header.Get("Content-Type")
	}

	ticket, err := h.ticketUseCase.Create(c.Request().Context(), kind, userID, input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, ticket)
}

func (h *TicketHandler) Get(c echo.Context) error {
	kind, err := ticketKind(c)
	if err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	ticket, err := h.ticketUseCase.Get(c.Request().Context(), kind, userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ticket)
}

func (h *TicketHandler) UpdateStatus(c echo.Context) error {
	kind, err := ticketKind(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	status, err := entity.ParseTicketStatus(req.Status)
	if err != nil {
		return response.Error(c, errors.BadRequest(err.Error(), err))
	}

	userID := c.Get("uid").(string)
	ticket, err := h.ticketUseCase.UpdateStatus(c.Request().Context(), kind, userID, c.Param("id"), status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ticket)
}

func (h *TicketHandler) Delete(c echo.Context) error {
	kind, err := ticketKind(c)
	if err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	if err := h.ticketUseCase.Delete(c.Request().Context(), kind, userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}

func ticketKind(c echo.Context) (entity.TicketKind, error) {
	kind, err := entity.ParseTicketKind(c.Param("kind"))
	if err != nil {
		return "", errors.BadRequest(err.Error(), err)
	}
	return kind, nil
}
