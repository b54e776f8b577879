package handler

import (
	"github.com/labstack/echo/v4"

	"lumisync/internal/usecase"
	"lumisync/pkg/errors"
	"lumisync/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type sendMessageRequest struct {
	Text       string `json:"text" validate:"required,max=2000"`
	PropertyID string `json:"property_id"`
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ReceiverID: c.Param("peerId"),
		Text:       req.Text,
		PropertyID: req.PropertyID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetConversation returns the shared conversation with a peer. A
// conversation nobody has written to yet still carries its canonical id.
func (h *ChatHandler) GetConversation(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversation, err := h.chatUseCase.ConversationWith(c.Request().Context(), userID, c.Param("peerId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ChatHandler) GetMyManager(c echo.Context) error {
	userID := c.Get("uid").(string)
	contact, err := h.chatUseCase.PropertyManagerFor(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, contact)
}
