package handler

import (
	"github.com/labstack/echo/v4"

	"lumisync/internal/usecase"
	"lumisync/pkg/errors"
	"lumisync/pkg/response"
)

type ContactHandler struct {
	contactUseCase *usecase.ContactUseCase
}

func NewContactHandler(contactUseCase *usecase.ContactUseCase) *ContactHandler {
	return &ContactHandler{
		contactUseCase: contactUseCase,
	}
}

type addContactRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"max=50"`
	Email        string `json:"email" validate:"omitempty,email"`
	PropertyName string `json:"property_name" validate:"max=200"`
}

func (h *ContactHandler) AddContact(c echo.Context) error {
	var req addContactRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	contact, err := h.contactUseCase.Add(c.Request().Context(), userID, usecase.AddContactInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		PropertyName: req.PropertyName,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, contact)
}
