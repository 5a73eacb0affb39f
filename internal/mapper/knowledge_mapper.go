package mapper

import (
	"encoding/json"
	"time"

	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) CollectionToEntity(c *model.KnowledgeCollection) *entity.KnowledgeCollection {
	if c == nil {
		return nil
	}
	return &entity.KnowledgeCollection{
		Id:          c.Id,
		Key:         c.Key,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *KnowledgeMapper) CollectionToModel(c *entity.KnowledgeCollection) *model.KnowledgeCollection {
	if c == nil {
		return nil
	}
	return &model.KnowledgeCollection{
		Id:          c.Id,
		Key:         c.Key,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *KnowledgeMapper) EntryToEntity(e *model.KnowledgeEntry) *entity.KnowledgeEntry {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]any
	if len(e.Metadata) > 0 {
		// Metadata is display-only; unreadable JSON degrades to nil.
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	return &entity.KnowledgeEntry{
		Id:           e.Id,
		Title:        e.Title,
		Content:      e.Content,
		Metadata:     metadata,
		CollectionId: e.CollectionId,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    e.DeletedAt.Valid,
	}
}

func (m *KnowledgeMapper) EntryToModel(e *entity.KnowledgeEntry) *model.KnowledgeEntry {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var metadata datatypes.JSON
	if e.Metadata != nil {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.KnowledgeEntry{
		Id:           e.Id,
		Title:        e.Title,
		Content:      e.Content,
		Metadata:     metadata,
		CollectionId: e.CollectionId,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}
