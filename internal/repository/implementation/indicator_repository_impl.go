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

type IndicatorRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlanMapper
}

func NewIndicatorRepository(db *gorm.DB) contract.IndicatorRepository {
	return &IndicatorRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlanMapper(),
	}
}

func (r *IndicatorRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *IndicatorRepositoryImpl) Create(ctx context.Context, indicator *entity.Indicator) error {
	m := r.mapper.IndicatorToModel(indicator)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*indicator = *r.mapper.IndicatorToEntity(m)
	return nil
}

func (r *IndicatorRepositoryImpl) CreateBulk(ctx context.Context, indicators []*entity.Indicator) error {
	if len(indicators) == 0 {
		return nil
	}
	models := make([]*model.Indicator, len(indicators))
	for i, ind := range indicators {
		models[i] = r.mapper.IndicatorToModel(ind)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*indicators[i] = *r.mapper.IndicatorToEntity(m)
	}
	return nil
}

func (r *IndicatorRepositoryImpl) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("chat_session_id = ?", chatSessionId).Delete(&model.Indicator{}).Error
}

func (r *IndicatorRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Indicator, error) {
	var m model.Indicator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.IndicatorToEntity(&m), nil
}

func (r *IndicatorRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Indicator, error) {
	var models []*model.Indicator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Indicator, len(models))
	for i, m := range models {
		entities[i] = r.mapper.IndicatorToEntity(m)
	}
	return entities, nil
}

func (r *IndicatorRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Indicator{}).Count(&count).Error
	return count, err
}
