package implementation

import (
	"context"

	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/mapper"
	"regen-advisor-be/internal/model"
	"regen-advisor-be/internal/repository/contract"
	"regen-advisor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type GapRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlanMapper
}

func NewGapRepository(db *gorm.DB) contract.GapRepository {
	return &GapRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlanMapper(),
	}
}

func (r *GapRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GapRepositoryImpl) Create(ctx context.Context, gap *entity.Gap) error {
	m := r.mapper.GapToModel(gap)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*gap = *r.mapper.GapToEntity(m)
	return nil
}

func (r *GapRepositoryImpl) CreateBulk(ctx context.Context, gaps []*entity.Gap) error {
	if len(gaps) == 0 {
		return nil
	}
	models := make([]*model.Gap, len(gaps))
	for i, g := range gaps {
		models[i] = r.mapper.GapToModel(g)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*gaps[i] = *r.mapper.GapToEntity(m)
	}
	return nil
}

func (r *GapRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Gap, error) {
	var models []*model.Gap
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Gap, len(models))
	for i, m := range models {
		entities[i] = r.mapper.GapToEntity(m)
	}
	return entities, nil
}

func (r *GapRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Gap{}).Count(&count).Error
	return count, err
}
