package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Control frame types sent to the client alongside raw audio bytes
const (
	EventTranscriptInterim = "transcript_interim"
	EventTranscriptFinal   = "transcript_final"
	EventAssistant         = "assistant"
	EventPing              = "ping"
	EventFinish            = "finish"
)

// ServerEvent is a JSON control frame sent to the client
type ServerEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// ClientConn wraps the client websocket connection. Gorilla connections
// support one concurrent writer; the keep-alive loop and the turn
// coordinator both write, so all sends go through a single mutex.
type ClientConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewClientConn wraps an upgraded websocket connection
func NewClientConn(conn *websocket.Conn) *ClientConn {
	return &ClientConn{conn: conn}
}

// SendEvent sends a JSON control frame to the client
func (c *ClientConn) SendEvent(eventType, content string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(ServerEvent{Type: eventType, Content: content})
}

// SendAudio sends raw audio bytes to the client
func (c *ClientConn) SendAudio(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// ReadMessage reads the next frame from the client. Read errors on gorilla
// connections are permanent; callers treat any error as client disconnect.
func (c *ClientConn) ReadMessage() (messageType int, data []byte, err error) {
	return c.conn.ReadMessage()
}

// Close sends a best-effort close frame and closes the underlying
// connection. Safe to call more than once and from multiple goroutines.
func (c *ClientConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
