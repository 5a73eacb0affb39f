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

type RecommendationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlanMapper
}

func NewRecommendationRepository(db *gorm.DB) contract.RecommendationRepository {
	return &RecommendationRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlanMapper(),
	}
}

func (r *RecommendationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RecommendationRepositoryImpl) Create(ctx context.Context, recommendation *entity.Recommendation) error {
	m := r.mapper.RecommendationToModel(recommendation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*recommendation = *r.mapper.RecommendationToEntity(m)
	return nil
}

func (r *RecommendationRepositoryImpl) SupersedeByIndicatorId(ctx context.Context, indicatorId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Recommendation{}).
		Where("indicator_id = ? AND superseded = ?", indicatorId, false).
		Update("superseded", true).Error
}

func (r *RecommendationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Recommendation, error) {
	var m model.Recommendation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RecommendationToEntity(&m), nil
}

func (r *RecommendationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Recommendation, error) {
	var models []*model.Recommendation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Recommendation, len(models))
	for i, m := range models {
		entities[i] = r.mapper.RecommendationToEntity(m)
	}
	return entities, nil
}

func (r *RecommendationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Recommendation{}).Count(&count).Error
	return count, err
}
