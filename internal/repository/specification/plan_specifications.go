package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByOutcomeID struct {
	OutcomeID uuid.UUID
}

func (s ByOutcomeID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("outcome_id = ?", s.OutcomeID)
}

type ByIndicatorID struct {
	IndicatorID uuid.UUID
}

func (s ByIndicatorID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("indicator_id = ?", s.IndicatorID)
}

// ByEpoch scopes plan rows to one pipeline run.
type ByEpoch struct {
	Epoch int
}

func (s ByEpoch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("epoch = ?", s.Epoch)
}

// NotSuperseded keeps only the active recommendation per indicator.
type NotSuperseded struct{}

func (s NotSuperseded) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("superseded = ?", false)
}
