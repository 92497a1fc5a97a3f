package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mpchat/server/internal/models"
	"github.com/mpchat/server/internal/repositories"
	"github.com/mpchat/server/internal/ws"
)

// PresenceService derives a user's online state from their live connection
// count. A user with two devices connected stays online until the last
// connection closes; transitions are written through to the user store and
// the presence cache, then announced to every connection.
type PresenceService struct {
	users    repositories.UserRepository
	presence repositories.PresenceRepository
	hub      Broadcaster

	mu    sync.Mutex
	conns map[uuid.UUID]int
}

func NewPresenceService(users repositories.UserRepository, presence repositories.PresenceRepository, hub Broadcaster) *PresenceService {
	return &PresenceService{
		users:    users,
		presence: presence,
		hub:      hub,
		conns:    make(map[uuid.UUID]int),
	}
}

func (s *PresenceService) ConnectionOpened(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	s.conns[userID]++
	first := s.conns[userID] == 1
	s.mu.Unlock()

	if first {
		s.transition(ctx, userID, true)
	}
}

func (s *PresenceService) ConnectionClosed(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	if s.conns[userID] == 0 {
		s.mu.Unlock()
		return
	}
	s.conns[userID]--
	last := s.conns[userID] == 0
	if last {
		delete(s.conns, userID)
	}
	s.mu.Unlock()

	if last {
		s.transition(ctx, userID, false)
	}
}

// transition persists the new state and announces it. Presence is derived
// state, so store failures are logged rather than propagated; the broadcast
// still goes out.
func (s *PresenceService) transition(ctx context.Context, userID uuid.UUID, online bool) {
	now := time.Now().UTC()

	if err := s.users.UpdateOnlineStatus(ctx, userID, online, now); err != nil {
		log.Printf("presence: update user %v: %v", userID, err)
	}

	if online {
		err := s.presence.SetPresence(ctx, &models.Presence{UserID: userID, Online: true, LastSeen: now})
		if err != nil {
			log.Printf("presence: set %v: %v", userID, err)
		}
	} else {
		if err := s.presence.DeletePresence(ctx, userID); err != nil {
			log.Printf("presence: delete %v: %v", userID, err)
		}
	}

	s.hub.BroadcastAll(ws.EventPresence, ws.PresencePayload{UserID: userID, Online: online})
}
