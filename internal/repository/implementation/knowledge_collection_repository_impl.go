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

type KnowledgeCollectionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewKnowledgeCollectionRepository(db *gorm.DB) contract.KnowledgeCollectionRepository {
	return &KnowledgeCollectionRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeCollectionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeCollectionRepositoryImpl) Create(ctx context.Context, collection *entity.KnowledgeCollection) error {
	m := r.mapper.CollectionToModel(collection)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*collection = *r.mapper.CollectionToEntity(m)
	return nil
}

func (r *KnowledgeCollectionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeCollection, error) {
	var m model.KnowledgeCollection
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.CollectionToEntity(&m), nil
}

func (r *KnowledgeCollectionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeCollection, error) {
	var models []*model.KnowledgeCollection
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgeCollection, len(models))
	for i, m := range models {
		entities[i] = r.mapper.CollectionToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeCollectionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeCollection{}).Count(&count).Error
	return count, err
}
