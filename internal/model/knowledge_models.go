package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeCollection struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Key         string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (KnowledgeCollection) TableName() string {
	return "knowledge_collections"
}

type KnowledgeEntry struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title        string         `gorm:"type:text;not null"`
	Content      string         `gorm:"type:text;not null"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CollectionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}

type KnowledgeEmbedding struct {
	Id       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Document string          `gorm:"type:text"`
	// text-embedding-004 produces 768 dimensions
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	EntryId        uuid.UUID       `gorm:"type:uuid;not null;index"`
	// CollectionKey is denormalized onto the embedding row so similarity
	// search filters without a join.
	CollectionKey string    `gorm:"type:varchar(64);not null;index"`
	ChunkIndex    int       `gorm:"default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (KnowledgeEmbedding) TableName() string {
	return "knowledge_embeddings"
}
