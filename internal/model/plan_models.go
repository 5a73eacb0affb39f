package model

import (
	"time"

	"github.com/google/uuid"
)

// Plan rows are append-only per epoch; no soft delete, a restart just bumps
// the session epoch and writes a fresh tree.

type Outcome struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Description   string    `gorm:"type:text;not null"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Epoch         int       `gorm:"not null;default:0;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (Outcome) TableName() string {
	return "outcomes"
}

type Indicator struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string    `gorm:"type:text;not null"`
	OutcomeId     uuid.UUID `gorm:"type:uuid;not null;index"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Epoch         int       `gorm:"not null;default:0;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (Indicator) TableName() string {
	return "indicators"
}

type Method struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"type:text;not null"`
	Accuracy    string    `gorm:"type:varchar(32)"`
	Cost        string    `gorm:"type:varchar(32)"`
	EaseOfUse   string    `gorm:"type:varchar(32)"`
	Ranked      bool      `gorm:"not null;default:false"`
	IndicatorId uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Method) TableName() string {
	return "methods"
}

type Recommendation struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MethodId       uuid.UUID `gorm:"type:uuid;not null"`
	MethodName     string    `gorm:"type:text;not null"`
	Rationale      string    `gorm:"type:text;not null"`
	PrioritiesUsed string    `gorm:"type:text"`
	Superseded     bool      `gorm:"not null;default:false;index"`
	IndicatorId    uuid.UUID `gorm:"type:uuid;not null;index"`
	ChatSessionId  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

type Gap struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Stage         string    `gorm:"type:varchar(32);not null"`
	Entity        string    `gorm:"type:text;not null"`
	Reason        string    `gorm:"type:varchar(32);not null"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Epoch         int       `gorm:"not null;default:0;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (Gap) TableName() string {
	return "gaps"
}
