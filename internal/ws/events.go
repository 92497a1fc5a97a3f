package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Inbound event types accepted from a connection.
const (
	EventAuthenticate = "authenticate"
	EventSendMessage  = "sendMessage"
	EventCallOffer    = "callOffer"
	EventCallAnswer   = "callAnswer"
	EventIceCandidate = "iceCandidate"
	EventCallEnd      = "callEnd"
)

// Outbound event types emitted by the relay. The four call events are reused
// in both directions.
const (
	EventNewMessage  = "newMessage"
	EventMessageSent = "messageSent"
	EventPresence    = "presence"
	EventError       = "error"
)

// Event is the wire envelope for every relay frame: a type tag plus a raw
// payload decoded per tag at the boundary.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var ErrBadEnvelope = errors.New("malformed event envelope")

func DecodeEvent(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if evt.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrBadEnvelope)
	}
	return evt, nil
}

func EncodeEvent(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return json.Marshal(Event{Type: event, Payload: raw})
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type PresencePayload struct {
	UserID uuid.UUID `json:"user_id"`
	Online bool      `json:"online"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Room names. Rooms are keyed by user id or group id; the prefixes keep the
// two namespaces from colliding.
func UserRoom(id uuid.UUID) string  { return "user:" + id.String() }
func GroupRoom(id uuid.UUID) string { return "group:" + id.String() }
