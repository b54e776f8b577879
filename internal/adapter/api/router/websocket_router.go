package router

import (
	"github.com/labstack/echo/v4"

	"lumisync/internal/adapter/api/handler"
	"lumisync/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up the live list endpoint.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket, authMiddleware.AuthenticateWebSocket)
}
