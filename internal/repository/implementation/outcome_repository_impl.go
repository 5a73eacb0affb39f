package implementation

import (
	"context"
	"errors"

	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/mapper"
	"regen-advisor-be/internal/model"
	"regen-advisor-be/internal/repository/contract"
	"regen-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutcomeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlanMapper
}

func NewOutcomeRepository(db *gorm.DB) contract.OutcomeRepository {
	return &OutcomeRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlanMapper(),
	}
}

func (r *OutcomeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *OutcomeRepositoryImpl) Create(ctx context.Context, outcome *entity.Outcome) error {
	m := r.mapper.OutcomeToModel(outcome)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*outcome = *r.mapper.OutcomeToEntity(m)
	return nil
}

func (r *OutcomeRepositoryImpl) CreateBulk(ctx context.Context, outcomes []*entity.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	models := make([]*model.Outcome, len(outcomes))
	for i, o := range outcomes {
		models[i] = r.mapper.OutcomeToModel(o)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*outcomes[i] = *r.mapper.OutcomeToEntity(m)
	}
	return nil
}

func (r *OutcomeRepositoryImpl) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("chat_session_id = ?", chatSessionId).Delete(&model.Outcome{}).Error
}

func (r *OutcomeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Outcome, error) {
	var m model.Outcome
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.OutcomeToEntity(&m), nil
}

func (r *OutcomeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Outcome, error) {
	var models []*model.Outcome
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Outcome, len(models))
	for i, m := range models {
		entities[i] = r.mapper.OutcomeToEntity(m)
	}
	return entities, nil
}

func (r *OutcomeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Outcome{}).Count(&count).Error
	return count, err
}
