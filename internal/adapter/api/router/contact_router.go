package router

import (
	"github.com/labstack/echo/v4"

	"lumisync/internal/adapter/api/handler"
	"lumisync/internal/adapter/api/middleware"
)

// SetupContactRouter sets up directory writes. The directory itself is the
// contacts screen on the websocket.
func SetupContactRouter(e *echo.Echo, contactHandler *handler.ContactHandler, authMiddleware *middleware.AuthMiddleware) {
	contactGroup := e.Group("/v1/contacts")
	contactGroup.Use(authMiddleware.Authenticate)

	contactGroup.POST("", contactHandler.AddContact) // POST /v1/contacts - Add custom contact (managers)
}
