package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVideo    MessageType = "video"
	MessageTypeDocument MessageType = "document"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Message is a persisted chat message. Exactly one of ReceiverID/GroupID is
// set; content is immutable after creation. Status only moves forward
// (sent -> delivered -> read).
type Message struct {
	ID              uuid.UUID     `json:"id"`
	SenderID        uuid.UUID     `json:"sender_id"`
	ReceiverID      *uuid.UUID    `json:"receiver_id,omitempty"`
	GroupID         *uuid.UUID    `json:"group_id,omitempty"`
	Content         string        `json:"content"`
	Type            MessageType   `json:"type"`
	Status          MessageStatus `json:"status"`
	ReplyToID       *uuid.UUID    `json:"reply_to_id,omitempty"`
	ForwardedFromID *uuid.UUID    `json:"forwarded_from_id,omitempty"`
	MediaURL        string        `json:"media_url,omitempty"`
	FileName        string        `json:"file_name,omitempty"`
	FileSize        int64         `json:"file_size,omitempty"`
	ExpiresAt       *time.Time    `json:"expires_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// MessageDraft is the client-supplied part of a message, before the server
// assigns id, sender, status and timestamp.
type MessageDraft struct {
	ReceiverID      *uuid.UUID  `json:"receiver_id,omitempty"`
	GroupID         *uuid.UUID  `json:"group_id,omitempty"`
	Content         string      `json:"content"`
	Type            MessageType `json:"type,omitempty"`
	ReplyToID       *uuid.UUID  `json:"reply_to_id,omitempty"`
	ForwardedFromID *uuid.UUID  `json:"forwarded_from_id,omitempty"`
	MediaURL        string      `json:"media_url,omitempty"`
	FileName        string      `json:"file_name,omitempty"`
	FileSize        int64       `json:"file_size,omitempty"`
	ExpiresAt       *time.Time  `json:"expires_at,omitempty"`
}
