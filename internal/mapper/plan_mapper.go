package mapper

import (
	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/model"
)

type PlanMapper struct{}

func NewPlanMapper() *PlanMapper {
	return &PlanMapper{}
}

func (m *PlanMapper) OutcomeToEntity(o *model.Outcome) *entity.Outcome {
	if o == nil {
		return nil
	}
	return &entity.Outcome{
		Id:            o.Id,
		Description:   o.Description,
		ChatSessionId: o.ChatSessionId,
		Epoch:         o.Epoch,
		CreatedAt:     o.CreatedAt,
	}
}

func (m *PlanMapper) OutcomeToModel(o *entity.Outcome) *model.Outcome {
	if o == nil {
		return nil
	}
	return &model.Outcome{
		Id:            o.Id,
		Description:   o.Description,
		ChatSessionId: o.ChatSessionId,
		Epoch:         o.Epoch,
		CreatedAt:     o.CreatedAt,
	}
}

func (m *PlanMapper) IndicatorToEntity(i *model.Indicator) *entity.Indicator {
	if i == nil {
		return nil
	}
	return &entity.Indicator{
		Id:            i.Id,
		Name:          i.Name,
		OutcomeId:     i.OutcomeId,
		ChatSessionId: i.ChatSessionId,
		Epoch:         i.Epoch,
		CreatedAt:     i.CreatedAt,
	}
}

func (m *PlanMapper) IndicatorToModel(i *entity.Indicator) *model.Indicator {
	if i == nil {
		return nil
	}
	return &model.Indicator{
		Id:            i.Id,
		Name:          i.Name,
		OutcomeId:     i.OutcomeId,
		ChatSessionId: i.ChatSessionId,
		Epoch:         i.Epoch,
		CreatedAt:     i.CreatedAt,
	}
}

func (m *PlanMapper) MethodToEntity(mm *model.Method) *entity.Method {
	if mm == nil {
		return nil
	}
	return &entity.Method{
		Id:          mm.Id,
		Name:        mm.Name,
		Accuracy:    mm.Accuracy,
		Cost:        mm.Cost,
		EaseOfUse:   mm.EaseOfUse,
		Ranked:      mm.Ranked,
		IndicatorId: mm.IndicatorId,
		CreatedAt:   mm.CreatedAt,
	}
}

func (m *PlanMapper) MethodToModel(mm *entity.Method) *model.Method {
	if mm == nil {
		return nil
	}
	return &model.Method{
		Id:          mm.Id,
		Name:        mm.Name,
		Accuracy:    mm.Accuracy,
		Cost:        mm.Cost,
		EaseOfUse:   mm.EaseOfUse,
		Ranked:      mm.Ranked,
		IndicatorId: mm.IndicatorId,
		CreatedAt:   mm.CreatedAt,
	}
}

func (m *PlanMapper) RecommendationToEntity(r *model.Recommendation) *entity.Recommendation {
	if r == nil {
		return nil
	}
	return &entity.Recommendation{
		Id:             r.Id,
		MethodId:       r.MethodId,
		MethodName:     r.MethodName,
		Rationale:      r.Rationale,
		PrioritiesUsed: r.PrioritiesUsed,
		Superseded:     r.Superseded,
		IndicatorId:    r.IndicatorId,
		ChatSessionId:  r.ChatSessionId,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *PlanMapper) RecommendationToModel(r *entity.Recommendation) *model.Recommendation {
	if r == nil {
		return nil
	}
	return &model.Recommendation{
		Id:             r.Id,
		MethodId:       r.MethodId,
		MethodName:     r.MethodName,
		Rationale:      r.Rationale,
		PrioritiesUsed: r.PrioritiesUsed,
		Superseded:     r.Superseded,
		IndicatorId:    r.IndicatorId,
		ChatSessionId:  r.ChatSessionId,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *PlanMapper) GapToEntity(g *model.Gap) *entity.Gap {
	if g == nil {
		return nil
	}
	return &entity.Gap{
		Id:            g.Id,
		Stage:         g.Stage,
		Entity:        g.Entity,
		Reason:        g.Reason,
		ChatSessionId: g.ChatSessionId,
		Epoch:         g.Epoch,
		CreatedAt:     g.CreatedAt,
	}
}

func (m *PlanMapper) GapToModel(g *entity.Gap) *model.Gap {
	if g == nil {
		return nil
	}
	return &model.Gap{
		Id:            g.Id,
		Stage:         g.Stage,
		Entity:        g.Entity,
		Reason:        g.Reason,
		ChatSessionId: g.ChatSessionId,
		Epoch:         g.Epoch,
		CreatedAt:     g.CreatedAt,
	}
}
