package service

import (
	"context"
	"encoding/json"
	"fmt"

	"regen-advisor-be/internal/dto"
	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/pkg/logger"
	"regen-advisor-be/internal/repository/specification"
	"regen-advisor-be/internal/repository/unitofwork"
	"regen-advisor-be/pkg/embedding"
	"regen-advisor-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	embedChunkSize    = 1500
	embedChunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	sysLogger         logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		sysLogger:         sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage chunks a knowledge entry and replaces its embeddings in one
// transaction. Malformed or orphaned messages are acked so they do not retry
// forever; transient failures are nacked.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedEntryMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLogger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	entry, err := uow.KnowledgeEntryRepository().FindOne(ctx, specification.ByID{ID: payload.EntryId})
	if err != nil {
		cs.sysLogger.Error("CONSUMER", "Failed to fetch entry", map[string]interface{}{"entry_id": payload.EntryId.String(), "error": err.Error()})
		msg.Nack()
		return
	}
	if entry == nil {
		// Deleted before the message drained.
		msg.Ack()
		return
	}

	content := fmt.Sprintf("Title: %s\n\n%s", entry.Title, entry.Content)
	chunks := utils.SplitText(content, embedChunkSize, embedChunkOverlap)

	var embeddings []*entity.KnowledgeEmbedding
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			cs.sysLogger.Error("CONSUMER", "Failed to embed chunk", map[string]interface{}{
				"entry_id": payload.EntryId.String(),
				"chunk":    i,
				"error":    err.Error(),
			})
			msg.Nack()
			return
		}
		embeddings = append(embeddings, &entity.KnowledgeEmbedding{
			Document:      chunk,
			Embedding:     res.Embedding.Values,
			EntryId:       entry.Id,
			CollectionKey: payload.CollectionKey,
			ChunkIndex:    i,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		cs.sysLogger.Error("CONSUMER", "Failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.KnowledgeEmbeddingRepository().DeleteByEntryId(ctx, entry.Id); err != nil {
		cs.sysLogger.Error("CONSUMER", "Failed to delete old embeddings", map[string]interface{}{"entry_id": entry.Id.String(), "error": err.Error()})
		msg.Nack()
		return
	}
	if len(embeddings) > 0 {
		if err := uow.KnowledgeEmbeddingRepository().CreateBulk(ctx, embeddings); err != nil {
			cs.sysLogger.Error("CONSUMER", "Failed to create embeddings", map[string]interface{}{"entry_id": entry.Id.String(), "error": err.Error()})
			msg.Nack()
			return
		}
	}
	if err := uow.Commit(); err != nil {
		cs.sysLogger.Error("CONSUMER", "Failed to commit transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	cs.sysLogger.Info("CONSUMER", "Entry embedded", map[string]interface{}{
		"entry_id": entry.Id.String(),
		"chunks":   len(embeddings),
	})
	msg.Ack()
}
