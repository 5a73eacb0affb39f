package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeCollection is a named corpus queried by one pipeline stage, e.g.
// "outcome-indicators" or "indicator-methods".
type KnowledgeCollection struct {
	Id          uuid.UUID
	Key         string
	Description string
	CreatedAt   time.Time
}

type KnowledgeEntry struct {
	Id           uuid.UUID
	Title        string
	Content      string
	Metadata     map[string]any
	CollectionId uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

type KnowledgeEmbedding struct {
	Id            uuid.UUID
	Document      string
	Embedding     []float32
	EntryId       uuid.UUID
	CollectionKey string
	ChunkIndex    int
	CreatedAt     time.Time
}
