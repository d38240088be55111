package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/beebasmgo/beebasm/expr"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isAllowedOrigin(r.Header.Get("Origin"))
	},
}

// WebSocketClient is one connected client: a session to evaluate lines
// against, and a subscription forwarding that session's events back.
type WebSocketClient struct {
	conn        *websocket.Conn
	send        chan SessionUpdate
	session     *Session
	sub         *Subscription
	broadcaster *Broadcaster
	mu          sync.Mutex
}

// clientLine is one line of source sent by the client for assembly.
type clientLine struct {
	Type string `json:"type"` // "line"
	Text string `json:"text"`
}

// handleWebSocket upgrades the connection, creates a session for it, and
// starts its read/write pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	session, err := s.sessions.CreateSession()
	if err != nil {
		log.Printf("failed to create session: %v", err)
		conn.Close()
		return
	}

	client := &WebSocketClient{
		conn:        conn,
		send:        make(chan SessionUpdate, 256),
		session:     session,
		broadcaster: s.broadcaster,
	}
	client.sub = s.broadcaster.Subscribe(session.ID)

	go client.forwardEvents()
	go client.writePump()
	client.readPump(s.sessions)
}

func (c *WebSocketClient) readPump(sessions *SessionManager) {
	defer func() {
		c.cleanup(sessions)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("SetReadDeadline error: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		var line clientLine
		if err := json.Unmarshal(message, &line); err != nil {
			log.Printf("failed to parse client message: %v", err)
			continue
		}
		if line.Type != "line" {
			continue
		}
		c.evaluate(line.Text)
	}
}

// evaluate assembles text as one statement against the client's session
// and publishes the result (or error) together with the symbol table it
// left behind, as a single SessionUpdate.
func (c *WebSocketClient) evaluate(text string) {
	debugLog("session %s evaluating %q", c.session.ID, text)
	out, err := c.session.Assembler.Assemble([]string{text})

	update := SessionUpdate{
		SessionID: c.session.ID,
		Input:     text,
		Symbols:   make(map[string]interface{}),
	}
	if err != nil {
		update.Error = err.Error()
	} else {
		update.Bytes = out
	}
	for _, name := range c.session.Assembler.Symbols().Names() {
		if v, ok := c.session.Assembler.Symbols().Lookup(name); ok {
			update.Symbols[name] = symbolJSON(v)
		}
	}
	c.broadcaster.Publish(update)
}

func symbolJSON(v expr.Value) interface{} {
	if v.IsString() {
		s, _ := v.AsString(0, 0)
		return s.String()
	}
	n, _ := v.AsNumber(0, 0)
	return n
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) forwardEvents() {
	for event := range c.sub.Channel {
		select {
		case c.send <- event:
		default:
		}
	}
}

func (c *WebSocketClient) cleanup(sessions *SessionManager) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		c.broadcaster.Unsubscribe(c.sub)
		c.sub = nil
	}
	sessions.DestroySession(c.session.ID)
}
