package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID
	Chat          string
	Role          string
	ChatSessionId uuid.UUID

	// Epoch ties the message to the session run it was written in. A restart
	// bumps the session epoch, so earlier turns drop out of history and
	// replay without being deleted.
	Epoch     int
	CreatedAt time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
