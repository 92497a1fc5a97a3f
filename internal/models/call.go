package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// SignalKind is one of the four peer-call negotiation message kinds. The
// relay treats all four identically; ordering and call lifecycle are the
// peers' responsibility.
type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
	SignalEnd       SignalKind = "end"
)

// SignalEnvelope is an inbound call signaling message. CallID is a
// caller-supplied correlation key; nothing about it is persisted or validated
// against call history. Payload is opaque to the relay (SDP, ICE candidate,
// or empty for end).
type SignalEnvelope struct {
	CallID     string          `json:"call_id"`
	Kind       SignalKind      `json:"-"`
	FromUserID uuid.UUID       `json:"from_user_id,omitempty"`
	ToUserID   uuid.UUID       `json:"to_user_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// SignalNotice is the outbound form delivered to the callee's room, with
// FromUserID stamped from the sender's authenticated identity.
type SignalNotice struct {
	FromUserID uuid.UUID       `json:"from_user_id"`
	CallID     string          `json:"call_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
