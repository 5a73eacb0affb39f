package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateKnowledgeEntryRequest struct {
	CollectionKey string         `json:"collection_key" validate:"required,oneof=outcome-indicators indicator-methods"`
	Title         string         `json:"title" validate:"required,max=500"`
	Content       string         `json:"content" validate:"required"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type KnowledgeEntryResponse struct {
	Id            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	CollectionKey string         `json:"collection_key"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PublishEmbedEntryMessage is the embed-queue payload: chunking and embedding
// happen asynchronously on the consumer side.
type PublishEmbedEntryMessage struct {
	EntryId       uuid.UUID `json:"entry_id"`
	CollectionKey string    `json:"collection_key"`
}
