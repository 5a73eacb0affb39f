package entity

import (
	"time"

	"github.com/google/uuid"
)

// Plan rows are written once per pipeline epoch and keyed back to the chat
// session, so a restart leaves earlier epochs queryable but inert.

type Outcome struct {
	Id            uuid.UUID
	Description   string
	ChatSessionId uuid.UUID
	Epoch         int
	CreatedAt     time.Time
}

type Indicator struct {
	Id            uuid.UUID
	Name          string
	OutcomeId     uuid.UUID
	ChatSessionId uuid.UUID
	Epoch         int
	CreatedAt     time.Time
}

type Method struct {
	Id          uuid.UUID
	Name        string
	Accuracy    string
	Cost        string
	EaseOfUse   string
	Ranked      bool
	IndicatorId uuid.UUID
	CreatedAt   time.Time
}

type Recommendation struct {
	Id             uuid.UUID
	MethodId       uuid.UUID
	MethodName     string
	Rationale      string
	PrioritiesUsed string
	Superseded     bool
	IndicatorId    uuid.UUID
	ChatSessionId  uuid.UUID
	CreatedAt      time.Time
}

type Gap struct {
	Id            uuid.UUID
	Stage         string
	Entity        string
	Reason        string
	ChatSessionId uuid.UUID
	Epoch         int
	CreatedAt     time.Time
}
