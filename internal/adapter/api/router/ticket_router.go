package router

import (
	"github.com/labstack/echo/v4"

	"lumisync/internal/adapter/api/handler"
	"lumisync/internal/adapter/api/middleware"
)

// SetupTicketRouter serves complaints and fix requests under one route set.
// :kind is "complaints" or "fix-requests".
func SetupTicketRouter(e *echo.Echo, ticketHandler *handler.TicketHandler, authMiddleware *middleware.AuthMiddleware) {
	ticketGroup := e.Group("/v1/tickets")
	ticketGroup.Use(authMiddleware.Authenticate)

	ticketGroup.POST("/:kind", ticketHandler.Create)                   // POST /v1/tickets/:kind - File a ticket (multipart, optional image)
	ticketGroup.GET("/:kind/:id", ticketHandler.Get)                   // GET /v1/tickets/:kind/:id - Get a visible ticket
	ticketGroup.PATCH("/:kind/:id/status", ticketHandler.UpdateStatus) // PATCH /v1/tickets/:kind/:id/status - Change status
	ticketGroup.DELETE("/:kind/:id", ticketHandler.Delete)             // DELETE /v1/tickets/:kind/:id - Delete a ticket
}
