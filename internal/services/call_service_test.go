package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/mpchat/server/internal/models"
	"github.com/mpchat/server/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallService_ForwardOffer(t *testing.T) {
	hub := &fakeBroadcaster{}
	calls := NewCallService(hub)
	callerID := uuid.New()
	calleeID := uuid.New()
	sdp := json.RawMessage(`{"sdp":"v=0...","type":"offer"}`)

	err := calls.Forward(authedConn(callerID), models.SignalEnvelope{
		CallID:   "c1",
		Kind:     models.SignalOffer,
		ToUserID: calleeID,
		Payload:  sdp,
	})

	require.NoError(t, err)
	forwarded := hub.callsOfEvent(ws.EventCallOffer)
	require.Len(t, forwarded, 1)
	assert.Equal(t, ws.UserRoom(calleeID), forwarded[0].room)

	// The envelope arrives unmodified except for the stamped origin.
	notice := forwarded[0].payload.(models.SignalNotice)
	assert.Equal(t, callerID, notice.FromUserID)
	assert.Equal(t, "c1", notice.CallID)
	assert.Equal(t, sdp, notice.Payload)
}

// A spoofed origin is rejected and nothing reaches the callee.
func TestCallService_ForwardSpoofedOrigin(t *testing.T) {
	hub := &fakeBroadcaster{}
	calls := NewCallService(hub)

	err := calls.Forward(authedConn(uuid.New()), models.SignalEnvelope{
		CallID:     "c1",
		Kind:       models.SignalOffer,
		FromUserID: uuid.New(), // somebody else
		ToUserID:   uuid.New(),
	})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, hub.calls)
}

func TestCallService_ForwardRequiresAuth(t *testing.T) {
	hub := &fakeBroadcaster{}
	calls := NewCallService(hub)

	err := calls.Forward(&fakeConn{}, models.SignalEnvelope{
		CallID:   "c1",
		Kind:     models.SignalOffer,
		ToUserID: uuid.New(),
	})

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, hub.calls)
}

func TestCallService_ForwardValidation(t *testing.T) {
	hub := &fakeBroadcaster{}
	calls := NewCallService(hub)
	conn := authedConn(uuid.New())

	// Missing call id
	err := calls.Forward(conn, models.SignalEnvelope{Kind: models.SignalEnd, ToUserID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	// Missing callee
	err = calls.Forward(conn, models.SignalEnvelope{Kind: models.SignalEnd, CallID: "c1"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	assert.Empty(t, hub.calls)
}

// The coordinator treats all four kinds identically — including end after
// end, or an answer with no prior offer. Call lifecycle is the peers'
// business, not the relay's.
func TestCallService_NoLifecycleEnforcement(t *testing.T) {
	hub := &fakeBroadcaster{}
	calls := NewCallService(hub)
	conn := authedConn(uuid.New())
	calleeID := uuid.New()

	for _, kind := range []models.SignalKind{
		models.SignalAnswer, models.SignalEnd, models.SignalEnd, models.SignalCandidate,
	} {
		err := calls.Forward(conn, models.SignalEnvelope{
			CallID:   "c1",
			Kind:     kind,
			ToUserID: calleeID,
		})
		require.NoError(t, err)
	}

	assert.Len(t, hub.calls, 4)
}

// Round-trip through the event dispatcher: an inbound callOffer event comes
// out of the callee's room as a callOffer event with the caller stamped.
func TestRelayService_HandleEventCallOffer(t *testing.T) {
	hub := &fakeBroadcaster{}
	relay := newTestRelay(&fakeMessageRepo{}, &fakeGroupRepo{}, hub)
	callerID := uuid.New()
	calleeID := uuid.New()

	payload, err := json.Marshal(models.SignalEnvelope{
		CallID:   "c1",
		ToUserID: calleeID,
		Payload:  json.RawMessage(`{"sdp":"x"}`),
	})
	require.NoError(t, err)

	relay.HandleEvent(context.Background(), authedConn(callerID), ws.Event{
		Type:    ws.EventCallOffer,
		Payload: payload,
	})

	forwarded := hub.callsOfEvent(ws.EventCallOffer)
	require.Len(t, forwarded, 1)
	notice := forwarded[0].payload.(models.SignalNotice)
	assert.Equal(t, callerID, notice.FromUserID)
	assert.Equal(t, "c1", notice.CallID)
	assert.JSONEq(t, `{"sdp":"x"}`, string(notice.Payload))
}
