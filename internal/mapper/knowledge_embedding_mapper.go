package mapper

import (
	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type KnowledgeEmbeddingMapper struct{}

func NewKnowledgeEmbeddingMapper() *KnowledgeEmbeddingMapper {
	return &KnowledgeEmbeddingMapper{}
}

func (m *KnowledgeEmbeddingMapper) ToEntity(e *model.KnowledgeEmbedding) *entity.KnowledgeEmbedding {
	if e == nil {
		return nil
	}
	return &entity.KnowledgeEmbedding{
		Id:            e.Id,
		Document:      e.Document,
		Embedding:     e.EmbeddingValue.Slice(),
		EntryId:       e.EntryId,
		CollectionKey: e.CollectionKey,
		ChunkIndex:    e.ChunkIndex,
		CreatedAt:     e.CreatedAt,
	}
}

func (m *KnowledgeEmbeddingMapper) ToModel(e *entity.KnowledgeEmbedding) *model.KnowledgeEmbedding {
	if e == nil {
		return nil
	}
	return &model.KnowledgeEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.Embedding),
		EntryId:        e.EntryId,
		CollectionKey:  e.CollectionKey,
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}
