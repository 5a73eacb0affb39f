package service

import (
	"context"
	"encoding/json"

	"regen-advisor-be/internal/dto"
	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/pkg/logger"
	"regen-advisor-be/internal/pkg/serverutils"
	"regen-advisor-be/internal/repository/specification"
	"regen-advisor-be/internal/repository/unitofwork"
	"regen-advisor-be/pkg/events"
	pkgNats "regen-advisor-be/pkg/nats"

	"github.com/google/uuid"
)

type IKnowledgeService interface {
	CreateEntry(ctx context.Context, req *dto.CreateKnowledgeEntryRequest) (*dto.KnowledgeEntryResponse, error)
	ListEntries(ctx context.Context, collectionKey string) ([]*dto.KnowledgeEntryResponse, error)
	DeleteEntry(ctx context.Context, entryId uuid.UUID) error
}

type knowledgeService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	natsPub          *pkgNats.Publisher
	sysLogger        logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	natsPub *pkgNats.Publisher,
	sysLogger logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		natsPub:          natsPub,
		sysLogger:        sysLogger,
	}
}

// CreateEntry stores the entry and queues it for chunking and embedding. The
// entry is searchable once the consumer has processed the queued message.
func (ks *knowledgeService) CreateEntry(ctx context.Context, req *dto.CreateKnowledgeEntryRequest) (*dto.KnowledgeEntryResponse, error) {
	uow := ks.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.KnowledgeCollectionRepository().FindOne(ctx, specification.ByCollectionKey{Key: req.CollectionKey})
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, &serverutils.NotFoundError{Message: "Knowledge collection not found"}
	}

	entry := &entity.KnowledgeEntry{
		Title:        req.Title,
		Content:      req.Content,
		Metadata:     req.Metadata,
		CollectionId: collection.Id,
	}
	if err := uow.KnowledgeEntryRepository().Create(ctx, entry); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(dto.PublishEmbedEntryMessage{
		EntryId:       entry.Id,
		CollectionKey: collection.Key,
	})
	if err != nil {
		return nil, err
	}
	if err := ks.publisherService.Publish(ctx, payload); err != nil {
		return nil, err
	}

	if ks.natsPub != nil {
		evt := events.New(events.TypeKnowledgeEntryAdded, map[string]interface{}{
			"entry_id":   entry.Id.String(),
			"collection": collection.Key,
		})
		if err := ks.natsPub.Publish(ctx, evt); err != nil {
			ks.sysLogger.Warn("KNOWLEDGE", "Failed to publish event", map[string]interface{}{"entry_id": entry.Id.String(), "error": err.Error()})
		}
	}

	ks.sysLogger.Info("KNOWLEDGE", "Entry created and queued for embedding", map[string]interface{}{
		"entry_id":   entry.Id.String(),
		"collection": collection.Key,
	})

	return &dto.KnowledgeEntryResponse{
		Id:            entry.Id,
		Title:         entry.Title,
		CollectionKey: collection.Key,
		Metadata:      entry.Metadata,
		CreatedAt:     entry.CreatedAt,
	}, nil
}

func (ks *knowledgeService) ListEntries(ctx context.Context, collectionKey string) ([]*dto.KnowledgeEntryResponse, error) {
	uow := ks.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.KnowledgeCollectionRepository().FindOne(ctx, specification.ByCollectionKey{Key: collectionKey})
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, &serverutils.NotFoundError{Message: "Knowledge collection not found"}
	}

	entries, err := uow.KnowledgeEntryRepository().FindAll(ctx,
		specification.ByCollectionID{CollectionID: collection.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.KnowledgeEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, &dto.KnowledgeEntryResponse{
			Id:            entry.Id,
			Title:         entry.Title,
			CollectionKey: collection.Key,
			Metadata:      entry.Metadata,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return out, nil
}

func (ks *knowledgeService) DeleteEntry(ctx context.Context, entryId uuid.UUID) error {
	uow := ks.uowFactory.NewUnitOfWork(ctx)

	entry, err := uow.KnowledgeEntryRepository().FindOne(ctx, specification.ByID{ID: entryId})
	if err != nil {
		return err
	}
	if entry == nil {
		return &serverutils.NotFoundError{Message: "Knowledge entry not found"}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.KnowledgeEmbeddingRepository().DeleteByEntryId(ctx, entryId); err != nil {
		return err
	}
	if err := uow.KnowledgeEntryRepository().Delete(ctx, entryId); err != nil {
		return err
	}
	return uow.Commit()
}
