package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"askhuman/internal/model"
)

// MessageType defines the type of WebSocket event
type MessageType string

const (
	MsgQuestionCreated MessageType = "question_created"
	MsgQuestionUpdated MessageType = "question_updated"
	MsgQuestionClosed  MessageType = "question_closed"
	MsgQuestionExpired MessageType = "question_expired"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// questionEvent is the payload for lifecycle updates
type questionEvent struct {
	QuestionID        string `json:"question_id"`
	Status            string `json:"status"`
	CurrentResponses  int    `json:"current_responses"`
	RequiredResponses int    `json:"required_responses"`
}

// feedEvent is the payload announcing a new question to the human feed
type feedEvent struct {
	QuestionID      string    `json:"question_id"`
	Prompt          string    `json:"prompt"`
	Type            string    `json:"type"`
	Options         []string  `json:"options,omitempty"`
	ResponsesNeeded int       `json:"responses_needed"`
	CreatedAt       time.Time `json:"created_at"`
}

// Hub fans question lifecycle events out to connected listeners: a global
// feed (humans waiting for new work) and per-question watchers. Delivery is
// at-least-once at best; a slow listener's messages are dropped, and
// listeners must tolerate duplicates.
type Hub struct {
	feedConns  map[*Connection]bool
	watchConns map[string]map[*Connection]bool // questionID -> conns

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	QuestionID string // Empty for feed connections
	Send       chan []byte
	Hub        *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	QuestionID string // Empty means the feed
	Message    *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		feedConns:  make(map[*Connection]bool),
		watchConns: make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.QuestionID == "" {
				h.feedConns[conn] = true
				log.Debug().Msg("Feed listener connected")
			} else {
				if h.watchConns[conn.QuestionID] == nil {
					h.watchConns[conn.QuestionID] = make(map[*Connection]bool)
				}
				h.watchConns[conn.QuestionID][conn] = true
				log.Debug().Str("questionId", conn.QuestionID).Msg("Question watcher connected")
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.QuestionID == "" {
				if h.feedConns[conn] {
					delete(h.feedConns, conn)
					close(conn.Send)
				}
			} else {
				if watchers, ok := h.watchConns[conn.QuestionID]; ok && watchers[conn] {
					delete(watchers, conn)
					close(conn.Send)
					if len(watchers) == 0 {
						delete(h.watchConns, conn.QuestionID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.QuestionID == "" {
				for conn := range h.feedConns {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else {
				for conn := range h.watchConns[msg.QuestionID] {
					select {
					case conn.Send <- data:
					default:
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// QuestionCreated announces a new question to the feed (implements service.Broadcaster)
func (h *Hub) QuestionCreated(q *model.Question) {
	payload, _ := json.Marshal(feedEvent{
		QuestionID:      q.ID,
		Prompt:          q.Prompt,
		Type:            string(q.Type),
		Options:         q.Options,
		ResponsesNeeded: q.ResponsesNeeded(),
		CreatedAt:       q.CreatedAt,
	})
	h.broadcast <- &BroadcastMessage{
		Message: &Message{Type: MsgQuestionCreated, Payload: payload},
	}
}

// QuestionUpdated notifies watchers of an admission or terminal transition
// (implements service.Broadcaster)
func (h *Hub) QuestionUpdated(q *model.Question, status model.QuestionStatus) {
	msgType := MsgQuestionUpdated
	switch status {
	case model.StatusClosed:
		msgType = MsgQuestionClosed
	case model.StatusExpired:
		msgType = MsgQuestionExpired
	}

	payload, _ := json.Marshal(questionEvent{
		QuestionID:        q.ID,
		Status:            string(status),
		CurrentResponses:  q.CurrentResponses,
		RequiredResponses: q.RequiredResponses,
	})
	h.broadcast <- &BroadcastMessage{
		QuestionID: q.ID,
		Message:    &Message{Type: msgType, Payload: payload},
	}
}
