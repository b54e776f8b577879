package handler

import (
	ws "lumisync/internal/infrastructure/websocket"
	"lumisync/internal/usecase"
)

var (
	healthHandler    *HealthHandler
	ticketHandler    *TicketHandler
	chatHandler      *ChatHandler
	contactHandler   *ContactHandler
	webSocketHandler *WebSocketHandler
)

func Setup(
	ticketUseCase *usecase.TicketUseCase,
	chatUseCase *usecase.ChatUseCase,
	contactUseCase *usecase.ContactUseCase,
	wsManager *ws.Manager,
	maxUploadBytes int64,
	checks []HealthCheck,
) {
	healthHandler = NewHealthHandler(checks...)
	ticketHandler = NewTicketHandler(ticketUseCase, maxUploadBytes)
	chatHandler = NewChatHandler(chatUseCase)
	contactHandler = NewContactHandler(contactUseCase)
	webSocketHandler = NewWebSocketHandler(wsManager)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func GetTicketHandler() *TicketHandler {
	return ticketHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetContactHandler() *ContactHandler {
	return contactHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}
