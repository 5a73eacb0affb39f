package contract

import (
	"context"

	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type OutcomeRepository interface {
	Create(ctx context.Context, outcome *entity.Outcome) error
	CreateBulk(ctx context.Context, outcomes []*entity.Outcome) error
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Outcome, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Outcome, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type IndicatorRepository interface {
	Create(ctx context.Context, indicator *entity.Indicator) error
	CreateBulk(ctx context.Context, indicators []*entity.Indicator) error
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Indicator, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Indicator, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type MethodRepository interface {
	Create(ctx context.Context, method *entity.Method) error
	CreateBulk(ctx context.Context, methods []*entity.Method) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Method, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Method, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type RecommendationRepository interface {
	Create(ctx context.Context, recommendation *entity.Recommendation) error
	// SupersedeByIndicatorId marks every active recommendation for the
	// indicator superseded, ahead of writing its replacement.
	SupersedeByIndicatorId(ctx context.Context, indicatorId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Recommendation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Recommendation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type GapRepository interface {
	Create(ctx context.Context, gap *entity.Gap) error
	CreateBulk(ctx context.Context, gaps []*entity.Gap) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Gap, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
