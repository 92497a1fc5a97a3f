package services

import (
	"github.com/google/uuid"
	"github.com/mpchat/server/internal/models"
	"github.com/mpchat/server/internal/ws"
)

var signalEvents = map[models.SignalKind]string{
	models.SignalOffer:     ws.EventCallOffer,
	models.SignalAnswer:    ws.EventCallAnswer,
	models.SignalCandidate: ws.EventIceCandidate,
	models.SignalEnd:       ws.EventCallEnd,
}

// CallService brokers peer-call negotiation between two connected clients.
// It is a minimal broker: every envelope kind gets the same treatment —
// authenticated, addressed forwarding to the callee's room, with the origin
// stamped from the connection's bound identity. There is no call state
// machine; the call id is a correlation key the peers own, and ordering or
// termination of a negotiation is entirely up to them.
type CallService struct {
	hub Broadcaster
}

func NewCallService(hub Broadcaster) *CallService {
	return &CallService{hub: hub}
}

// Forward relays a signaling envelope to the callee. A claimed origin that
// does not match the sender's authenticated identity is rejected and nothing
// is forwarded.
func (s *CallService) Forward(conn ws.Conn, env models.SignalEnvelope) error {
	userID := conn.UserID()
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	if env.FromUserID != uuid.Nil && env.FromUserID != userID {
		return ErrForbidden
	}
	if env.CallID == "" || env.ToUserID == uuid.Nil {
		return ErrInvalidMessage
	}
	event, ok := signalEvents[env.Kind]
	if !ok {
		return ErrInvalidMessage
	}

	s.hub.Broadcast(ws.UserRoom(env.ToUserID), event, models.SignalNotice{
		FromUserID: userID,
		CallID:     env.CallID,
		Payload:    env.Payload,
	})
	return nil
}
