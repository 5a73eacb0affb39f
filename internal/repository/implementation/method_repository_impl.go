package implementation

import (
	"context"
	"errors"

	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/mapper"
	"regen-advisor-be/internal/model"
	"regen-advisor-be/internal/repository/contract"
	"regen-advisor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type MethodRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlanMapper
}

func NewMethodRepository(db *gorm.DB) contract.MethodRepository {
	return &MethodRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlanMapper(),
	}
}

func (r *MethodRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MethodRepositoryImpl) Create(ctx context.Context, method *entity.Method) error {
	m := r.mapper.MethodToModel(method)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*method = *r.mapper.MethodToEntity(m)
	return nil
}

func (r *MethodRepositoryImpl) CreateBulk(ctx context.Context, methods []*entity.Method) error {
	if len(methods) == 0 {
		return nil
	}
	models := make([]*model.Method, len(methods))
	for i, mm := range methods {
		models[i] = r.mapper.MethodToModel(mm)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*methods[i] = *r.mapper.MethodToEntity(m)
	}
	return nil
}

func (r *MethodRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Method, error) {
	var m model.Method
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MethodToEntity(&m), nil
}

func (r *MethodRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Method, error) {
	var models []*model.Method
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Method, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MethodToEntity(m)
	}
	return entities, nil
}

func (r *MethodRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Method{}).Count(&count).Error
	return count, err
}
