package router

import (
	"github.com/labstack/echo/v4"

	"lumisync/internal/adapter/api/handler"
	"lumisync/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupHealthRouter(e, handler.GetHealthHandler())
	SetupTicketRouter(e, handler.GetTicketHandler(), authMiddleware)
	SetupChatRouter(e, handler.GetChatHandler(), authMiddleware)
	SetupContactRouter(e, handler.GetContactHandler(), authMiddleware)
	SetupWebSocketRouter(e, handler.GetWebSocketHandler(), authMiddleware)
}
