package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id       uuid.UUID `json:"id"`
	Greeting string    `json:"greeting"`

	// Upload carries the pipeline result when a document accompanied the
	// session creation request.
	Upload *SendMessageResponse `json:"upload,omitempty"`
}

type GetAllSessionsResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	DocumentName string     `json:"document_name,omitempty"`
	Stage        string     `json:"stage"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Chat      string    `json:"chat"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest is the text part of a session turn. A document upload
// arrives as the multipart "document" file alongside it.
type SendMessageRequest struct {
	Chat string `json:"chat" validate:"max=4000"`
}

type SendMessageResponseChat struct {
	Id        uuid.UUID `json:"id"`
	Chat      string    `json:"chat"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageResponse struct {
	ChatSessionId uuid.UUID                  `json:"chat_session_id"`
	Stage         string                     `json:"stage"`
	Sent          *SendMessageResponseChat   `json:"sent,omitempty"`
	Replies       []*SendMessageResponseChat `json:"replies"`
	Plan          *PlanResponse              `json:"plan,omitempty"`
}

type RestartSessionResponse struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Stage         string    `json:"stage"`
	Epoch         int       `json:"epoch"`
	Notice        string    `json:"notice"`
}

// Plan tree

type PlanResponse struct {
	Outcomes []OutcomeDTO `json:"outcomes"`
	Gaps     []GapDTO     `json:"gaps,omitempty"`
}

type OutcomeDTO struct {
	Id          string         `json:"id"`
	Description string         `json:"description"`
	Indicators  []IndicatorDTO `json:"indicators,omitempty"`
}

type IndicatorDTO struct {
	Id             string             `json:"id"`
	Name           string             `json:"name"`
	Methods        []MethodDTO        `json:"methods,omitempty"`
	Recommendation *RecommendationDTO `json:"recommendation,omitempty"`
}

type MethodDTO struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Accuracy  string `json:"accuracy"`
	Cost      string `json:"cost"`
	EaseOfUse string `json:"ease_of_use"`
	Ranked    bool   `json:"ranked"`
}

type RecommendationDTO struct {
	MethodId       string `json:"method_id"`
	MethodName     string `json:"method_name"`
	Rationale      string `json:"rationale"`
	PrioritiesUsed string `json:"priorities_used"`
	Superseded     bool   `json:"superseded"`
}

type GapDTO struct {
	Stage  string `json:"stage"`
	Entity string `json:"entity"`
	Reason string `json:"reason"`
}
