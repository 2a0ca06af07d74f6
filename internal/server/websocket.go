package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msto63/chomsky/pkg/core/logging"
)

const wsReadTimeout = 120 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler checks sentences sent over a WebSocket connection
type WebSocketHandler struct {
	checker SentenceChecker
	prefix  string
	logger  *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(c SentenceChecker, commentPrefix string) *WebSocketHandler {
	return &WebSocketHandler{
		checker: c,
		prefix:  commentPrefix,
		logger:  logging.New("websocket"),
	}
}

// WSMessage is a client message
type WSMessage struct {
	Type    string          `json:"type"` // "check", "ping"
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSCheckPayload carries the sentence of a check message
type WSCheckPayload struct {
	Sentence string `json:"sentence"`
}

// WSResponse is a server message
type WSResponse struct {
	Type    string      `json:"type"` // "verdict", "pong", "error"
	Payload interface{} `json:"payload,omitempty"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(conn)
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	h.logger.Debug("WebSocket connection established", "remote", conn.RemoteAddr().String())

	// gorilla allows one concurrent writer
	var mu sync.Mutex
	send := func(resp WSResponse) {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			h.logger.Warn("WebSocket write failed", "error", err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "error", err)
			} else {
				h.logger.Debug("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "ping":
			send(WSResponse{Type: "pong"})

		case "check":
			var payload WSCheckPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				send(errorResponse("invalid_payload", "check requires a sentence"))
				continue
			}
			sentence, err := sentenceText(payload.Sentence, h.prefix)
			if err != nil {
				send(errorResponse("invalid_payload", err.Error()))
				continue
			}
			v := h.checker.Check(sentence)
			if v.Err != nil {
				send(errorResponse("internal_error", v.Err.Error()))
				continue
			}
			send(WSResponse{Type: "verdict", Payload: v})

		default:
			send(errorResponse("unknown_type", "Unknown message type: "+msg.Type))
		}
	}
}

func errorResponse(code, message string) WSResponse {
	return WSResponse{Type: "error", Payload: WSErrorPayload{Code: code, Message: message}}
}
