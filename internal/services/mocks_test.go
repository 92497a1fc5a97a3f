package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mpchat/server/internal/models"
	"github.com/mpchat/server/internal/repositories"
)

// Test doubles for the relay's collaborators. The relay only depends on
// interfaces (ws.Conn, Broadcaster, repositories), so everything here is an
// in-memory recorder.

type sentEvent struct {
	event   string
	payload any
}

// fakeConn implements ws.Conn.
type fakeConn struct {
	userID uuid.UUID
	joined []string
	events []sentEvent
}

func (c *fakeConn) UserID() uuid.UUID     { return c.userID }
func (c *fakeConn) BindUser(id uuid.UUID) { c.userID = id }
func (c *fakeConn) Join(room string)      { c.joined = append(c.joined, room) }
func (c *fakeConn) Send(event string, payload any) {
	c.events = append(c.events, sentEvent{event: event, payload: payload})
}

func (c *fakeConn) eventsOfType(event string) []sentEvent {
	var out []sentEvent
	for _, e := range c.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type broadcastCall struct {
	room    string // "*" for BroadcastAll
	event   string
	payload any
}

// fakeBroadcaster implements Broadcaster.
type fakeBroadcaster struct {
	mu          sync.Mutex
	calls       []broadcastCall
	onBroadcast func(call broadcastCall)
}

func (b *fakeBroadcaster) Broadcast(room, event string, payload any) {
	b.record(broadcastCall{room: room, event: event, payload: payload})
}

func (b *fakeBroadcaster) BroadcastAll(event string, payload any) {
	b.record(broadcastCall{room: "*", event: event, payload: payload})
}

func (b *fakeBroadcaster) record(call broadcastCall) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
	if b.onBroadcast != nil {
		b.onBroadcast(call)
	}
}

func (b *fakeBroadcaster) callsOfEvent(event string) []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastCall
	for _, c := range b.calls {
		if c.event == event {
			out = append(out, c)
		}
	}
	return out
}

// fakeMessageRepo implements repositories.MessageRepository.
type fakeMessageRepo struct {
	mu        sync.Mutex
	created   []*models.Message
	createErr error
	onCreate  func() // runs inside Create, before it returns
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	if r.onCreate != nil {
		r.onCreate()
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, message)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.created {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeMessageRepo) ListConversation(ctx context.Context, userID, peerID uuid.UUID) ([]*models.Message, error) {
	return nil, nil
}

func (r *fakeMessageRepo) ListChats(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	return nil, nil
}

func (r *fakeMessageRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) error {
	return nil
}

// fakeGroupRepo implements repositories.GroupRepository.
type fakeGroupRepo struct {
	groupsByUser map[uuid.UUID][]uuid.UUID
	lookupErr    error
}

func (r *fakeGroupRepo) Create(ctx context.Context, group *models.Group) error { return nil }

func (r *fakeGroupRepo) AddMember(ctx context.Context, groupID, userID uuid.UUID) error { return nil }

func (r *fakeGroupRepo) MembersOf(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (r *fakeGroupRepo) GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	return r.groupsByUser[userID], nil
}

type statusUpdate struct {
	userID uuid.UUID
	online bool
}

// fakeUserRepo implements repositories.UserRepository.
type fakeUserRepo struct {
	mu            sync.Mutex
	byUsername    map[string]*models.User
	statusUpdates []statusUpdate
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byUsername: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	r.byUsername[user.Username] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byUsername[username]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) { return nil, nil }

func (r *fakeUserRepo) UpdateOnlineStatus(ctx context.Context, id uuid.UUID, online bool, lastSeenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusUpdates = append(r.statusUpdates, statusUpdate{userID: id, online: online})
	return nil
}

// fakePresenceRepo implements repositories.PresenceRepository.
type fakePresenceRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*models.Presence
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{entries: make(map[uuid.UUID]*models.Presence)}
}

func (r *fakePresenceRepo) SetPresence(ctx context.Context, presence *models.Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[presence.UserID] = presence
	return nil
}

func (r *fakePresenceRepo) GetPresence(ctx context.Context, userID uuid.UUID) (*models.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.entries[userID]; ok {
		return p, nil
	}
	return &models.Presence{UserID: userID, Online: false}, nil
}

func (r *fakePresenceRepo) DeletePresence(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
	return nil
}
