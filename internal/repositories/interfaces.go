package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mpchat/server/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateOnlineStatus(ctx context.Context, id uuid.UUID, online bool, lastSeenAt time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListConversation(ctx context.Context, userID, peerID uuid.UUID) ([]*models.Message, error)
	ListChats(ctx context.Context, userID uuid.UUID) ([]*models.Message, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) error
}

type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	MembersOf(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type PresenceRepository interface {
	SetPresence(ctx context.Context, presence *models.Presence) error
	GetPresence(ctx context.Context, userID uuid.UUID) (*models.Presence, error)
	DeletePresence(ctx context.Context, userID uuid.UUID) error
}
