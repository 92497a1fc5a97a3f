package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mpchat/server/internal/models"
	"github.com/mpchat/server/internal/repositories"
	"github.com/mpchat/server/internal/ws"
)

var (
	ErrUnauthenticated = errors.New("connection is not authenticated")
	ErrForbidden       = errors.New("claimed origin does not match authenticated identity")
	ErrInvalidMessage  = errors.New("invalid message draft")
	ErrPersistence     = errors.New("failed to persist message")
)

// RelayService is the event handler behind every websocket connection. It
// resolves identity once per connection, relays chat messages (persist first,
// deliver second) and forwards call signaling.
type RelayService struct {
	tokens   *TokenService
	presence *PresenceService
	calls    *CallService
	messages repositories.MessageRepository
	groups   repositories.GroupRepository
	hub      Broadcaster
}

func NewRelayService(
	tokens *TokenService,
	presence *PresenceService,
	calls *CallService,
	messages repositories.MessageRepository,
	groups repositories.GroupRepository,
	hub Broadcaster,
) *RelayService {
	return &RelayService{
		tokens:   tokens,
		presence: presence,
		calls:    calls,
		messages: messages,
		groups:   groups,
		hub:      hub,
	}
}

// HandleEvent dispatches one inbound event. Failures are reported to the
// originating connection only, as an error event; the connection stays open.
func (s *RelayService) HandleEvent(ctx context.Context, conn ws.Conn, evt ws.Event) {
	switch evt.Type {
	case ws.EventAuthenticate:
		var payload ws.AuthenticatePayload
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			s.reportError(conn, ErrMalformedCredential)
			return
		}
		if err := s.Authenticate(ctx, conn, payload.Token); err != nil {
			s.reportError(conn, err)
		}

	case ws.EventSendMessage:
		var draft models.MessageDraft
		if err := json.Unmarshal(evt.Payload, &draft); err != nil {
			s.reportError(conn, ErrInvalidMessage)
			return
		}
		if _, err := s.SendMessage(ctx, conn, draft); err != nil {
			s.reportError(conn, err)
		}

	case ws.EventCallOffer, ws.EventCallAnswer, ws.EventIceCandidate, ws.EventCallEnd:
		var env models.SignalEnvelope
		if err := json.Unmarshal(evt.Payload, &env); err != nil {
			s.reportError(conn, ErrInvalidMessage)
			return
		}
		env.Kind = signalKindForEvent(evt.Type)
		if err := s.calls.Forward(conn, env); err != nil {
			s.reportError(conn, err)
		}

	default:
		conn.Send(ws.EventError, ws.ErrorPayload{
			Code:    "unknown_event",
			Message: fmt.Sprintf("unknown event type %q", evt.Type),
		})
	}
}

// HandleDisconnect releases the connection's presence reference. The registry
// has already removed the connection from its rooms at this point.
func (s *RelayService) HandleDisconnect(ctx context.Context, conn ws.Conn) {
	if userID := conn.UserID(); userID != uuid.Nil {
		s.presence.ConnectionClosed(ctx, userID)
	}
}

// Authenticate resolves the credential and binds the identity to the
// connection: the connection joins its own user room plus one room per group
// the user belongs to, and the user's presence count goes up. Identity is
// resolved once per connection; a repeat with the same identity is a no-op
// and a repeat with a different one is rejected.
func (s *RelayService) Authenticate(ctx context.Context, conn ws.Conn, credential string) error {
	userID, err := s.tokens.Resolve(credential)
	if err != nil {
		return err
	}

	if bound := conn.UserID(); bound != uuid.Nil {
		if bound == userID {
			return nil
		}
		return ErrForbidden
	}

	conn.BindUser(userID)
	conn.Join(ws.UserRoom(userID))

	groupIDs, err := s.groups.GroupIDsForUser(ctx, userID)
	if err != nil {
		// Group rooms are best-effort at connect time; direct delivery and
		// presence still work without them.
		log.Printf("relay: group rooms for %v: %v", userID, err)
	}
	for _, groupID := range groupIDs {
		conn.Join(ws.GroupRoom(groupID))
	}

	s.presence.ConnectionOpened(ctx, userID)
	return nil
}

// SendMessage validates a draft, persists the full message, then delivers it:
// a newMessage event to the destination room and a messageSent confirmation
// to the sender. Persistence happens-before any delivery — a recipient never
// observes a message that is not durable, and a store failure emits nothing.
func (s *RelayService) SendMessage(ctx context.Context, conn ws.Conn, draft models.MessageDraft) (*models.Message, error) {
	senderID := conn.UserID()
	if senderID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if (draft.ReceiverID == nil) == (draft.GroupID == nil) {
		return nil, fmt.Errorf("%w: exactly one of receiver_id/group_id required", ErrInvalidMessage)
	}
	if draft.Content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidMessage)
	}

	msgType := draft.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	message := &models.Message{
		ID:              uuid.New(),
		SenderID:        senderID,
		ReceiverID:      draft.ReceiverID,
		GroupID:         draft.GroupID,
		Content:         draft.Content,
		Type:            msgType,
		Status:          models.StatusSent,
		ReplyToID:       draft.ReplyToID,
		ForwardedFromID: draft.ForwardedFromID,
		MediaURL:        draft.MediaURL,
		FileName:        draft.FileName,
		FileSize:        draft.FileSize,
		ExpiresAt:       draft.ExpiresAt,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	room := ""
	if message.ReceiverID != nil {
		room = ws.UserRoom(*message.ReceiverID)
	} else {
		room = ws.GroupRoom(*message.GroupID)
	}

	// Two distinct events: the sender is not a member of the destination room
	// (unless messaging itself) and still gets its own confirmation.
	s.hub.Broadcast(room, ws.EventNewMessage, message)
	conn.Send(ws.EventMessageSent, message)

	return message, nil
}

func (s *RelayService) reportError(conn ws.Conn, err error) {
	conn.Send(ws.EventError, ws.ErrorPayload{Code: errorCode(err), Message: err.Error()})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedCredential):
		return "malformed_credential"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidMessage):
		return "invalid_message"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	default:
		return "internal_error"
	}
}

func signalKindForEvent(event string) models.SignalKind {
	switch event {
	case ws.EventCallOffer:
		return models.SignalOffer
	case ws.EventCallAnswer:
		return models.SignalAnswer
	case ws.EventIceCandidate:
		return models.SignalCandidate
	default:
		return models.SignalEnd
	}
}
