package unitofwork

import (
	"context"

	"regen-advisor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository

	OutcomeRepository() contract.OutcomeRepository
	IndicatorRepository() contract.IndicatorRepository
	MethodRepository() contract.MethodRepository
	RecommendationRepository() contract.RecommendationRepository
	GapRepository() contract.GapRepository

	KnowledgeCollectionRepository() contract.KnowledgeCollectionRepository
	KnowledgeEntryRepository() contract.KnowledgeEntryRepository
	KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository
}
