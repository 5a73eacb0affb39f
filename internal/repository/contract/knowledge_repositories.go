package contract

import (
	"context"

	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type KnowledgeCollectionRepository interface {
	Create(ctx context.Context, collection *entity.KnowledgeCollection) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeCollection, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeCollection, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type KnowledgeEntryRepository interface {
	Create(ctx context.Context, entry *entity.KnowledgeEntry) error
	Update(ctx context.Context, entry *entity.KnowledgeEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

// ScoredKnowledgeEmbedding wraps KnowledgeEmbedding with its similarity score
type ScoredKnowledgeEmbedding struct {
	Embedding  *entity.KnowledgeEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type KnowledgeEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.KnowledgeEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error
	DeleteByEntryId(ctx context.Context, entryId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns embeddings in the collection with their
	// cosine similarity, best first, filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, collectionKey string, threshold float64) ([]*ScoredKnowledgeEmbedding, error)
}
