package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"podcast-kb/internal/models"
)

var ErrSessionNotFound = errors.New("no such session")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// Conn is the subset of *websocket.Conn the hub relies on.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Session is one push connection. Writes are serialised; Close is idempotent.
type Session struct {
	ID string

	hub       *Hub
	conn      Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Hub maps session ids to live push connections.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	endpoint string
	gate     func() error
}

// NewHub creates a hub. endpoint is the path clients post operations to; gate,
// when non-nil, is consulted before every upgrade.
func NewHub(endpoint string, gate func() error) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		endpoint: endpoint,
		gate:     gate,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.gate != nil {
		if err := h.gate(); err != nil {
			log.Printf("WebSocket refused: %v", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s, err := h.Register(conn)
	if err != nil {
		log.Printf("WebSocket session setup failed: %v", err)
		conn.Close()
		return
	}

	// Keep connection alive and handle disconnect
	go func() {
		defer s.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Register assigns a fresh id to conn and announces it to the client before
// the session becomes reachable by anyone else.
func (h *Hub) Register(conn Conn) (*Session, error) {
	s := &Session{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		done: make(chan struct{}),
	}

	err := s.Send(models.WSMessage{
		Type: models.WSTypeEndpoint,
		Payload: models.EndpointEvent{
			SessionID: s.ID,
			Endpoint:  fmt.Sprintf("%s?sessionId=%s", h.endpoint, s.ID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to announce session: %w", err)
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	total := len(h.sessions)
	h.mu.Unlock()

	log.Printf("Session connected: %s (total: %d)", s.ID, total)
	return s, nil
}

func (h *Hub) Lookup(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Send pushes msg to the session with the given id.
func (h *Hub) Send(id string, msg interface{}) error {
	s, ok := h.Lookup(id)
	if !ok {
		return ErrSessionNotFound
	}
	return s.Send(msg)
}

// Heartbeat pings every open session; sessions whose ping fails are closed.
func (h *Hub) Heartbeat() {
	for _, s := range h.snapshot() {
		err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		if err != nil {
			log.Printf("Heartbeat failed for session %s: %v", s.ID, err)
			s.Close()
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll disconnects every session, used on shutdown.
func (h *Hub) CloseAll() {
	for _, s := range h.snapshot() {
		s.Close()
	}
}

func (h *Hub) snapshot() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Send writes msg as a JSON text frame. A failed write tears the session down.
func (s *Session) Send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	err = s.conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()

	if err != nil {
		s.Close()
		return err
	}
	return nil
}

// Close unregisters the session and closes its connection exactly once, no
// matter how many paths notice the disconnect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s.ID)
		s.conn.Close()
		close(s.done)
		log.Printf("Session disconnected: %s", s.ID)
	})
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
