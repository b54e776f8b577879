package router

import (
	"github.com/labstack/echo/v4"

	"lumisync/internal/adapter/api/handler"
	"lumisync/internal/adapter/api/middleware"
)

// SetupChatRouter sets up chat writes and lookups. Live lists go over the
// websocket.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/conversations")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("/:peerId/messages", chatHandler.SendMessage) // POST /v1/conversations/:peerId/messages - Send message
	chatGroup.GET("/:peerId", chatHandler.GetConversation)       // GET /v1/conversations/:peerId - Conversation with peer

	meGroup := e.Group("/v1/me")
	meGroup.Use(authMiddleware.Authenticate)

	meGroup.GET("/manager", chatHandler.GetMyManager) // GET /v1/me/manager - Renter's property manager
}
