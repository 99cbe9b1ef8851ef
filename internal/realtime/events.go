package realtime

import (
	"encoding/json"
	"time"
)

// Event types - client → server
const (
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventSendMessage       = "sendMessage"
	EventTyping            = "typing"
	EventPing              = "ping"
)

// Event types - server → client
const (
	EventReceiveMessage = "receiveMessage"
	EventTypingStatus   = "typingStatus"
	EventPong           = "pong"
	EventError          = "error"
)

// Event is the envelope for everything that crosses the relay.
//
// Origin is the connection that caused the event; typing events are not
// echoed back to it.
type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId,omitempty"`
	Origin         string          `json:"origin,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      int64           `json:"ts,omitempty"`
}

// NewEvent marshals payload into an Event stamped with the current time.
func NewEvent(typ, conversationID string, payload any) (Event, error) {
	evt := Event{
		Type:           typ,
		ConversationID: conversationID,
		Timestamp:      time.Now().UnixMilli(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		evt.Payload = raw
	}
	return evt, nil
}

// --- client → server payloads ---

type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type SendMessagePayload struct {
	ConversationID string  `json:"conversationId"`
	ReceiverID     string  `json:"receiverId"`
	Text           *string `json:"text,omitempty"`
	Type           string  `json:"type,omitempty"`
	MediaURL       *string `json:"mediaUrl,omitempty"`
}

// TypingPayload is both the client "typing" request and the server
// "typingStatus" broadcast.
type TypingPayload struct {
	ConversationID string `json:"conversationId,omitempty"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// --- server → client payloads ---

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
