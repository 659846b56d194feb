package websocket

import (
	"encoding/json"
	"fmt"
)

// EventName identifies a frame on the wire in both directions.
type EventName string

const (
	// Client to server
	EventHandshake EventName = "handshake"
	EventSend      EventName = "send"
	EventTyping    EventName = "typing"

	// Server to client
	EventPresence     EventName = "presence"
	EventMessage      EventName = "message"
	EventNotification EventName = "notification"
)

func (e EventName) String() string {
	return string(e)
}

// IsInbound reports whether clients are allowed to send this event.
func (e EventName) IsInbound() bool {
	switch e {
	case EventHandshake, EventSend, EventTyping:
		return true
	default:
		return false
	}
}

// Envelope is the frame every websocket message is wrapped in.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Event EventName   `json:"event"`
	Data  interface{} `json:"data"`
}

// EncodeEvent marshals payload into an Envelope frame.
func EncodeEvent(event EventName, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(outboundEnvelope{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event, err)
	}
	return data, nil
}

// DecodeEnvelope parses a raw inbound frame.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event name")
	}
	return env, nil
}

/** -------------------- Payloads -------------------- */
type HandshakePayload struct {
	Credential string `json:"credential"`
}

// SendPayload asks the server to deliver a direct message.
// RecipientUserID is signed so that non-positive ids can be rejected.
type SendPayload struct {
	RecipientUserID int64   `json:"recipientUserId"`
	Body            *string `json:"body,omitempty"`
	ImageURL        *string `json:"imageUrl,omitempty"`
}

type TypingPayload struct {
	RecipientUserID int64 `json:"recipientUserId"`
	IsTyping        bool  `json:"isTyping"`
}

// TypingEvent is what the recipient sees for a TypingPayload.
type TypingEvent struct {
	SenderUserID    uint `json:"senderUserId"`
	RecipientUserID uint `json:"recipientUserId"`
	IsTyping        bool `json:"isTyping"`
}

type PresencePayload struct {
	OnlineUserIDs []uint `json:"onlineUserIds"`
}

// decodePayload unmarshals env.Data into v; a missing payload is an error.
func decodePayload(env Envelope, v interface{}) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s: missing payload", env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%s: %w", env.Event, err)
	}
	return nil
}
