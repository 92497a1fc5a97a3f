package models

import (
	"time"

	"github.com/google/uuid"
)

type Presence struct {
	UserID   uuid.UUID `json:"user_id"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}
