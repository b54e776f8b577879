package websocket

import (
	"encoding/json"
	"time"

	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/internal/usecase"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

const (
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeActivate   = "activate"
	MessageTypeDeactivate = "deactivate"
	MessageTypeList       = "list"
	MessageTypeError      = "error"
)

// WSMessage is the frame in both directions. Clients send activate and
// deactivate; the server answers with list frames carrying the full list.
type WSMessage struct {
	Type      string      `json:"type"`
	Screen    string      `json:"screen,omitempty"`
	PeerID    string      `json:"peer_id,omitempty"`
	Items     interface{} `json:"items,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var msg WSMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		logger.Warn("WebSocket: bad frame from client %s: %v", client.ID, err)
		sendFrame(client, WSMessage{Type: MessageTypeError, Error: "invalid message format"})
		return
	}

	switch msg.Type {
	case MessageTypePing:
		sendFrame(client, WSMessage{Type: MessageTypePong})
	case MessageTypeActivate:
		m.handleActivate(client, msg)
	case MessageTypeDeactivate:
		m.handleDeactivate(client, msg)
	default:
		sendFrame(client, WSMessage{Type: MessageTypeError, Error: "unknown message type " + msg.Type})
	}
}

// handleActivate attaches the screen, or re-activates it when it is already
// open. Re-activation resolves the user's scope again.
func (m *Manager) handleActivate(client *Client, msg WSMessage) {
	kind, err := usecase.ParseScreenKind(msg.Screen)
	if err != nil {
		sendError(client, msg.Screen, err)
		return
	}
	if m.rateLimiter != nil {
		if ok, _ := m.rateLimiter.Allow(client.UserID, ratelimit.ActionActivateScreen); !ok {
			sendError(client, msg.Screen, errors.TooManyRequests("too many screen activations"))
			return
		}
	}

	client.mu.Lock()
	if client.closed {
		client.mu.Unlock()
		return
	}
	current := client.screens[kind]
	if current != nil && current.peerID != msg.PeerID {
		current.screen.Deactivate()
		delete(client.screens, kind)
		current = nil
	}
	if current == nil {
		screen, err := m.opener.Open(kind, usecase.ScreenOptions{PeerID: msg.PeerID}, func(items interface{}) {
			sendFrame(client, WSMessage{Type: MessageTypeList, Screen: string(kind), PeerID: msg.PeerID, Items: items})
		})
		if err != nil {
			client.mu.Unlock()
			sendError(client, msg.Screen, err)
			return
		}
		current = &openScreen{screen: screen, peerID: msg.PeerID}
		client.screens[kind] = current
	}
	client.mu.Unlock()

	if err := current.screen.Activate(client.ctx, client.UserID); err != nil {
		sendError(client, msg.Screen, err)
		return
	}

	// The client may have gone away while the screen was attaching.
	client.mu.Lock()
	closed := client.closed
	client.mu.Unlock()
	if closed {
		current.screen.Deactivate()
	}
}

func (m *Manager) handleDeactivate(client *Client, msg WSMessage) {
	kind, err := usecase.ParseScreenKind(msg.Screen)
	if err != nil {
		sendError(client, msg.Screen, err)
		return
	}

	client.mu.Lock()
	current := client.screens[kind]
	delete(client.screens, kind)
	client.mu.Unlock()

	if current != nil {
		current.screen.Deactivate()
	}
}

func sendError(client *Client, screen string, err error) {
	message := err.Error()
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	sendFrame(client, WSMessage{Type: MessageTypeError, Screen: screen, Error: message})
}

func sendFrame(client *Client, msg WSMessage) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s frame: %v", msg.Type, err)
		return
	}
	client.trySend(data)
}
