package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByCollectionID struct {
	CollectionID uuid.UUID
}

func (s ByCollectionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("collection_id = ?", s.CollectionID)
}

type ByCollectionKey struct {
	Key string
}

func (s ByCollectionKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("key = ?", s.Key)
}

type ByEntryID struct {
	EntryID uuid.UUID
}

func (s ByEntryID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("entry_id = ?", s.EntryID)
}
