package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/internal/usecase"
	"lumisync/pkg/logger"
)

// ScreenOpener builds the live list behind a screen.
type ScreenOpener interface {
	Open(kind usecase.ScreenKind, opts usecase.ScreenOptions, publish func(items interface{})) (usecase.Screen, error)
}

// conn is the subset of *websocket.Conn the pumps use.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one websocket connection. It owns the screens opened through it
// and releases all of them when it goes away.
type Client struct {
	ID     string
	UserID string
	Conn   conn
	Send   chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	screens map[usecase.ScreenKind]*openScreen
	closed  bool

	sendMu     sync.RWMutex
	sendClosed bool
}

type openScreen struct {
	screen usecase.Screen
	peerID string
}

func NewClient(userID string, c *websocket.Conn) *Client {
	return newClient(userID, c)
}

func newClient(userID string, c conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		Conn:    c,
		Send:    make(chan []byte, 256),
		ctx:     ctx,
		cancel:  cancel,
		screens: make(map[usecase.ScreenKind]*openScreen),
	}
}

// trySend queues a frame without blocking. Frames for a full or closed
// client are dropped.
func (c *Client) trySend(frame []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		logger.Warn("WebSocket: send buffer full for client %s, dropping frame", c.ID)
		return false
	}
}

// ScreenCount reports how many screens the client has attached.
func (c *Client) ScreenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.screens)
}

// shutdown deactivates every screen and then closes Send.
func (c *Client) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	screens := c.screens
	c.screens = make(map[usecase.ScreenKind]*openScreen)
	c.mu.Unlock()

	c.cancel()
	for _, s := range screens {
		s.screen.Deactivate()
	}

	c.sendMu.Lock()
	c.sendClosed = true
	close(c.Send)
	c.sendMu.Unlock()
}

// Manager tracks connected clients.
type Manager struct {
	clients     map[string]*Client
	Register    chan *Client
	Unregister  chan *Client
	opener      ScreenOpener
	rateLimiter *ratelimit.RateLimiter
	mutex       sync.RWMutex
	done        chan struct{}
}

func NewManager(opener ScreenOpener, rateLimiter *ratelimit.RateLimiter) *Manager {
	return &Manager{
		clients:     make(map[string]*Client),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		opener:      opener,
		rateLimiter: rateLimiter,
		done:        make(chan struct{}),
	}
}

// Start runs the registration loop until ctx is done, then shuts down every
// remaining client.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.ID] = client
				m.mutex.Unlock()
				logger.Info("WebSocket: client %s registered for user %s", client.ID, client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				_, ok := m.clients[client.ID]
				delete(m.clients, client.ID)
				m.mutex.Unlock()
				if ok {
					client.shutdown()
				}
				logger.Info("WebSocket: client %s unregistered", client.ID)

			case <-ctx.Done():
				close(m.done)
				m.mutex.Lock()
				clients := m.clients
				m.clients = make(map[string]*Client)
				m.mutex.Unlock()
				for _, client := range clients {
					client.shutdown()
				}
				return
			}
		}
	}()
}

// Connect registers a client. It reports false once the manager has
// stopped, in which case the client is shut down.
func (m *Manager) Connect(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		client.shutdown()
		return false
	}
}

func (m *Manager) disconnect(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		client.shutdown()
	}
}

func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// ReadPump feeds incoming frames to the manager until the connection fails.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.disconnect(c)
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error for client %s: %v", c.ID, err)
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump drains Send into the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("WebSocket: write error for client %s: %v", c.ID, err)
			return
		}
	}
}
