package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"regen-advisor-be/internal/constant"
	"regen-advisor-be/internal/dto"
	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/pkg/logger"
	"regen-advisor-be/internal/pkg/serverutils"
	"regen-advisor-be/internal/repository/memory"
	"regen-advisor-be/internal/repository/specification"
	"regen-advisor-be/internal/repository/unitofwork"
	"regen-advisor-be/pkg/advisor/conversation"
	"regen-advisor-be/pkg/advisor/pipeline"
	"regen-advisor-be/pkg/advisor/selector"
	"regen-advisor-be/pkg/events"
	"regen-advisor-be/pkg/kb"
	"regen-advisor-be/pkg/llm"
	pkgNats "regen-advisor-be/pkg/nats"
	"regen-advisor-be/pkg/store"
	"regen-advisor-be/pkg/utils"

	"github.com/google/uuid"
)

// ProgressNotifier streams pipeline stage transitions to connected clients.
type ProgressNotifier interface {
	NotifyProgress(sessionId string, stage string)
}

type ISessionService interface {
	StartSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	ListSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error)
	SendMessage(ctx context.Context, sessionId uuid.UUID, chat string, document []byte, documentName string) (*dto.SendMessageResponse, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	GetPlan(ctx context.Context, sessionId uuid.UUID) (*dto.PlanResponse, error)
	Restart(ctx context.Context, sessionId uuid.UUID) (*dto.RestartSessionResponse, error)
	Delete(ctx context.Context, sessionId uuid.UUID) error
}

type sessionService struct {
	uowFactory   unitofwork.RepositoryFactory
	sessions     *memory.SessionRepository
	orchestrator *pipeline.Orchestrator
	selector     *selector.Selector
	retriever    kb.Retriever
	llmProvider  llm.LLMProvider
	natsPub      *pkgNats.Publisher
	notifier     ProgressNotifier
	sysLogger    logger.ILogger
	uploadsDir   string
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.SessionRepository,
	orchestrator *pipeline.Orchestrator,
	sel *selector.Selector,
	retriever kb.Retriever,
	llmProvider llm.LLMProvider,
	natsPub *pkgNats.Publisher,
	notifier ProgressNotifier,
	sysLogger logger.ILogger,
	uploadsDir string,
) ISessionService {
	return &sessionService{
		uowFactory:   uowFactory,
		sessions:     sessions,
		orchestrator: orchestrator,
		selector:     sel,
		retriever:    retriever,
		llmProvider:  llmProvider,
		natsPub:      natsPub,
		notifier:     notifier,
		sysLogger:    sysLogger,
		uploadsDir:   uploadsDir,
	}
}

func (s *sessionService) StartSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	sessionEntity := &entity.ChatSession{
		Title: "Monitoring advisor session",
		Stage: store.StageIdle,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, sessionEntity); err != nil {
		return nil, err
	}

	sess := &store.Session{
		ID:    sessionEntity.Id.String(),
		Stage: store.StageIdle,
	}
	conv := conversation.NewManager(s.summarizer())
	s.sessions.Save(sess, conv)

	s.appendAssistant(ctx, sess, conv, constant.SessionOpeningMessage)

	s.publishEvent(ctx, events.TypeSessionStarted, map[string]interface{}{"session_id": sess.ID})
	s.sysLogger.Info("SESSION", "Session started", map[string]interface{}{"session_id": sess.ID})

	return &dto.CreateSessionResponse{
		Id:       sessionEntity.Id,
		Greeting: constant.SessionOpeningMessage,
	}, nil
}

func (s *sessionService) ListSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, se := range sessions {
		out = append(out, &dto.GetAllSessionsResponse{
			Id:           se.Id,
			Title:        se.Title,
			DocumentName: se.DocumentName,
			Stage:        se.Stage,
			CreatedAt:    se.CreatedAt,
			UpdatedAt:    se.UpdatedAt,
		})
	}
	return out, nil
}

func (s *sessionService) SendMessage(ctx context.Context, sessionId uuid.UUID, chat string, document []byte, documentName string) (*dto.SendMessageResponse, error) {
	sess, conv, err := s.loadSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := &dto.SendMessageResponse{ChatSessionId: sessionId}

	if chat != "" {
		sent := s.persistMessage(ctx, sess, constant.ChatMessageRoleUser, chat)
		conv.Append(conversation.RoleUser, chat)
		res.Sent = sent
	}

	if len(document) > 0 {
		err = s.handleDocument(ctx, sess, conv, document, documentName, res)
	} else {
		err = s.handleTextTurn(ctx, sess, conv, chat, res)
	}
	if err != nil {
		return nil, err
	}

	sess.Update(func() {
		res.Stage = sess.Stage
		if sess.Plan != nil {
			res.Plan = planToDTO(sess.Plan)
		}
	})
	return res, nil
}

// handleTextTurn dispatches a text-only turn while holding the session lock,
// so turns and restarts on one session are serialized.
func (s *sessionService) handleTextTurn(ctx context.Context, sess *store.Session, conv *conversation.Manager, chat string, res *dto.SendMessageResponse) error {
	sess.Lock()
	defer sess.Unlock()

	if sess.Stage == store.StageAwaitingPreferences {
		return s.advanceRecommendations(ctx, sess, conv, chat, res)
	}
	return s.answerQuestion(ctx, sess, conv, chat, res)
}

// handleDocument stores the upload, runs the staged pipeline and persists the
// resulting plan. The websocket notifier receives every stage transition.
//
// The pipeline runs without the session lock so a restart can land mid-run;
// the run's epoch is captured first, and the results are applied only if the
// epoch is still current once the lock is re-taken.
func (s *sessionService) handleDocument(ctx context.Context, sess *store.Session, conv *conversation.Manager, document []byte, documentName string, res *dto.SendMessageResponse) error {
	if err := s.storeUpload(sess.ID, documentName, document); err != nil {
		s.sysLogger.Warn("SESSION", "Failed to store upload", map[string]interface{}{"session_id": sess.ID, "error": err.Error()})
	}

	epoch := sess.CurrentEpoch()
	sess.Update(func() { sess.DocumentName = documentName })

	progress := func(stage string) {
		if s.notifier != nil {
			s.notifier.NotifyProgress(sess.ID, stage)
		}
	}

	plan, err := s.orchestrator.Run(ctx, sess, document, conv, progress)

	sess.Lock()
	defer sess.Unlock()

	if errors.Is(err, pipeline.ErrStaleEpoch) || (err == nil && sess.CurrentEpoch() != epoch) {
		s.sysLogger.Warn("SESSION", "Discarded stale pipeline run", map[string]interface{}{"session_id": sess.ID})
		res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, constant.RestartNotice))
		return nil
	}
	if err != nil {
		// Extraction failed or the response was unreadable. The session ends
		// this run with an explicit notice instead of a silent empty plan.
		s.sysLogger.Error("SESSION", "Document pipeline failed", map[string]interface{}{"session_id": sess.ID, "error": err.Error()})
		res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, constant.DocumentUnreadableNotice))
		s.syncSessionRow(ctx, sess)
		return nil
	}

	if len(plan.Outcomes) == 0 {
		res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, constant.NoOutcomesNotice))
		s.syncSessionRow(ctx, sess)
		return nil
	}

	if err := s.persistPlan(ctx, sess, plan); err != nil {
		s.sysLogger.Error("SESSION", "Failed to persist plan", map[string]interface{}{"session_id": sess.ID, "error": err.Error()})
	}
	s.syncSessionRow(ctx, sess)

	s.publishEvent(ctx, events.TypePlanReady, map[string]interface{}{
		"session_id": sess.ID,
		"outcomes":   len(plan.Outcomes),
		"gaps":       len(plan.Gaps),
	})

	res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, summarizePlan(plan)))

	// Start the preference dialogue for the first recommendable indicator.
	if sess.Stage == store.StageAwaitingPreferences {
		return s.advanceRecommendations(ctx, sess, conv, "", res)
	}

	res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, constant.PlanReadyNotice))
	return nil
}

// advanceRecommendations walks the pending indicators in plan order. A stated
// priority carries over to later indicators; the clarifying question is asked
// at most once per indicator, and a turn without priorities after the
// question falls through to grounded answering. Caller holds the session lock.
func (s *sessionService) advanceRecommendations(ctx context.Context, sess *store.Session, conv *conversation.Manager, chat string, res *dto.SendMessageResponse) error {
	sess.Stage = store.StageRecommending
	if sess.AskedIndicators == nil {
		sess.AskedIndicators = make(map[string]bool)
	}

	for len(sess.PendingIndicators) > 0 {
		key := sess.PendingIndicators[0]
		indicator := findIndicator(sess.Plan, key)
		if indicator == nil {
			sess.PendingIndicators = sess.PendingIndicators[1:]
			continue
		}

		result := s.selector.ElicitAndRecommend(*indicator, conv.History(), sess.AskedIndicators[key])

		if result.Awaiting {
			sess.Stage = store.StageAwaitingPreferences
			if result.Question != "" {
				sess.AskedIndicators[key] = true
				res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, result.Question))
				s.syncSessionRow(ctx, sess)
				return nil
			}
			// Question already asked and this turn stated no priority:
			// answer the turn from the knowledge base instead of repeating
			// the question.
			if chat != "" {
				return s.answerQuestion(ctx, sess, conv, chat, res)
			}
			s.syncSessionRow(ctx, sess)
			return nil
		}

		if result.Recommendation == nil {
			notice := fmt.Sprintf("None of the listed methods for %q carry complete accuracy, cost and ease-of-use ratings, so I cannot recommend one.", indicator.Name)
			res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, notice))
			sess.PendingIndicators = sess.PendingIndicators[1:]
			continue
		}

		s.applyRecommendation(ctx, sess, indicator, result.Recommendation)
		sess.Priorities = result.Recommendation.PrioritiesUsed
		res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv,
			fmt.Sprintf("For %q I recommend %s. %s", indicator.Name, result.Recommendation.MethodName, result.Recommendation.Rationale)))
		sess.PendingIndicators = sess.PendingIndicators[1:]
	}

	sess.Stage = store.StageDone
	res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, constant.PlanReadyNotice))
	s.syncSessionRow(ctx, sess)
	return nil
}

// answerQuestion handles free-form turns: a fresh priority statement on a
// finished plan re-opens the recommendations, anything else is answered from
// the knowledge base grounded on the conversation. Caller holds the session
// lock.
func (s *sessionService) answerQuestion(ctx context.Context, sess *store.Session, conv *conversation.Manager, chat string, res *dto.SendMessageResponse) error {
	if chat == "" {
		return &serverutils.BadRequestError{Message: "Message text or a document is required"}
	}

	if _, ok := selector.ParsePriorities(chat); ok && sess.Stage == store.StageDone && sess.Plan != nil {
		s.reopenRecommendations(sess)
		if len(sess.PendingIndicators) > 0 {
			return s.advanceRecommendations(ctx, sess, conv, chat, res)
		}
	}

	cfg := s.orchestrator.Config()
	transcript := conv.RenderWithSummary(ctx, cfg.HistoryMaxMessages, cfg.HistoryMaxChars)
	answer, err := s.retriever.RetrieveAndGenerate(ctx, kb.GenerateRequest{
		Collection:   constant.CollectionIndicatorMethods,
		Query:        chat,
		Conversation: transcript,
	})
	if err != nil {
		return err
	}

	res.Replies = append(res.Replies, s.appendAssistant(ctx, sess, conv, answer.Text))
	return nil
}

// reopenRecommendations queues every indicator with ranked methods again so a
// new priority statement supersedes the earlier picks.
func (s *sessionService) reopenRecommendations(sess *store.Session) {
	var pending []string
	for _, outcome := range sess.Plan.Outcomes {
		for _, ind := range outcome.Indicators {
			for _, m := range ind.Methods {
				if m.Ranked {
					pending = append(pending, utils.NormalizeName(ind.Name))
					break
				}
			}
		}
	}
	sess.PendingIndicators = pending
	if sess.AskedIndicators == nil {
		sess.AskedIndicators = make(map[string]bool)
	}
	for _, key := range pending {
		// The new statement is already on record, no re-asking.
		sess.AskedIndicators[key] = true
	}
	sess.Stage = store.StageAwaitingPreferences
}

// applyRecommendation attaches the recommendation to the in-memory plan and
// persists it, marking any earlier pick for the indicator superseded.
func (s *sessionService) applyRecommendation(ctx context.Context, sess *store.Session, indicator *store.Indicator, rec *store.Recommendation) {
	if indicator.Recommendation != nil {
		indicator.Recommendation.Superseded = true
	}
	indicator.Recommendation = rec

	indicatorId, err := uuid.Parse(indicator.ID)
	if err != nil {
		return
	}
	methodId, _ := uuid.Parse(rec.MethodID)
	sessionId, _ := uuid.Parse(sess.ID)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.RecommendationRepository().SupersedeByIndicatorId(ctx, indicatorId); err != nil {
		s.sysLogger.Warn("SESSION", "Failed to supersede recommendations", map[string]interface{}{"indicator_id": indicator.ID, "error": err.Error()})
	}
	if err := uow.RecommendationRepository().Create(ctx, &entity.Recommendation{
		MethodId:       methodId,
		MethodName:     rec.MethodName,
		Rationale:      rec.Rationale,
		PrioritiesUsed: rec.PrioritiesUsed,
		IndicatorId:    indicatorId,
		ChatSessionId:  sessionId,
	}); err != nil {
		s.sysLogger.Warn("SESSION", "Failed to persist recommendation", map[string]interface{}{"indicator_id": indicator.ID, "error": err.Error()})
	}

	s.publishEvent(ctx, events.TypeRecommendationEmitted, map[string]interface{}{
		"session_id": sess.ID,
		"indicator":  indicator.Name,
		"method":     rec.MethodName,
	})
}

// GetHistory returns the transcript of the session's current epoch. Turns
// from before the last restart stay stored but are no longer part of the
// conversation.
func (s *sessionService) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	sess, _, err := s.loadSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.ByEpoch{Epoch: int(sess.CurrentEpoch())},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Chat:      msg.Chat,
			CreatedAt: msg.CreatedAt,
		})
	}
	return out, nil
}

func (s *sessionService) GetPlan(ctx context.Context, sessionId uuid.UUID) (*dto.PlanResponse, error) {
	sess, _, err := s.loadSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	var planDTO *dto.PlanResponse
	sess.Update(func() {
		if sess.Plan != nil {
			planDTO = planToDTO(sess.Plan)
		}
	})
	if planDTO == nil {
		return nil, &serverutils.NotFoundError{Message: "No plan yet for this session"}
	}
	return planDTO, nil
}

// Restart resets the session to a clean slate under the session lock. The
// epoch bump makes any in-flight pipeline run discard its results instead of
// applying them, and scopes the stored transcript to the fresh run.
func (s *sessionService) Restart(ctx context.Context, sessionId uuid.UUID) (*dto.RestartSessionResponse, error) {
	sess, conv, err := s.loadSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	epoch := sess.BumpEpoch()
	sess.Stage = store.StageIdle
	sess.DocumentName = ""
	sess.Plan = nil
	sess.PendingIndicators = nil
	sess.AskedIndicators = nil
	sess.Priorities = ""
	conv.Clear()
	s.syncSessionRow(ctx, sess)
	sess.Unlock()

	s.appendAssistant(ctx, sess, conv, constant.RestartNotice)

	s.publishEvent(ctx, events.TypeSessionRestarted, map[string]interface{}{"session_id": sess.ID, "epoch": epoch})
	s.sysLogger.Info("SESSION", "Session restarted", map[string]interface{}{"session_id": sess.ID, "epoch": epoch})

	return &dto.RestartSessionResponse{
		ChatSessionId: sessionId,
		Stage:         store.StageIdle,
		Epoch:         int(epoch),
		Notice:        constant.RestartNotice,
	}, nil
}

func (s *sessionService) Delete(ctx context.Context, sessionId uuid.UUID) error {
	s.sessions.Delete(sessionId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TypeSessionDeleted, map[string]interface{}{"session_id": sessionId.String()})
	return nil
}

// loadSession fetches the live session, rehydrating from the database when
// the process restarted since the session was created.
func (s *sessionService) loadSession(ctx context.Context, sessionId uuid.UUID) (*store.Session, *conversation.Manager, error) {
	if sess, conv, found := s.sessions.Get(sessionId.String()); found {
		return sess, conv, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, nil, err
	}
	if row == nil {
		return nil, nil, &serverutils.NotFoundError{Message: "Session not found"}
	}

	sess := &store.Session{
		ID:           row.Id.String(),
		Stage:        rehydratedStage(row.Stage),
		DocumentName: row.DocumentName,
		Epoch:        int64(row.Epoch),
	}
	conv := conversation.NewManager(s.summarizer())

	// Replay the current epoch's transcript so rendering still sees prior
	// turns. Turns from before the last restart stay out, or a pre-restart
	// priority statement would leak into fresh recommendations.
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.ByEpoch{Epoch: row.Epoch},
		specification.OrderBy{Field: "created_at"},
	)
	if err == nil {
		for _, msg := range messages {
			conv.Append(msg.Role, msg.Chat)
		}
	}

	if plan, err := s.loadPlan(ctx, sessionId, row.Epoch); err == nil && plan != nil {
		sess.Plan = plan
	}

	// The pending queue and asked flags live only in memory, so rebuild the
	// queue for a session that was mid-dialogue when the process restarted.
	// Indicators that already carry a recommendation stay settled.
	if sess.Stage == store.StageAwaitingPreferences && sess.Plan != nil {
		sess.AskedIndicators = make(map[string]bool)
		for _, outcome := range sess.Plan.Outcomes {
			for _, ind := range outcome.Indicators {
				if ind.Recommendation != nil {
					continue
				}
				for _, m := range ind.Methods {
					if m.Ranked {
						sess.PendingIndicators = append(sess.PendingIndicators, utils.NormalizeName(ind.Name))
						break
					}
				}
			}
		}
	}

	sess, conv = s.sessions.Ensure(sess, conv)
	return sess, conv, nil
}

// rehydratedStage collapses mid-pipeline stages to DONE: the in-flight run
// died with the process, and its partial results were never applied.
func rehydratedStage(stage string) string {
	switch stage {
	case store.StageExtractingOutcomes, store.StageResolvingIndicators, store.StageResolvingMethods, store.StageRecommending:
		return store.StageDone
	case "":
		return store.StageIdle
	default:
		return stage
	}
}

// persistPlan writes the plan tree in one transaction, stamped with the
// session's current epoch.
func (s *sessionService) persistPlan(ctx context.Context, sess *store.Session, plan *store.Plan) error {
	sessionId, err := uuid.Parse(sess.ID)
	if err != nil {
		return err
	}
	epoch := int(sess.CurrentEpoch())

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	var outcomes []*entity.Outcome
	var indicators []*entity.Indicator
	var methods []*entity.Method
	for _, o := range plan.Outcomes {
		outcomes = append(outcomes, &entity.Outcome{
			Id:            parseOrNew(o.ID),
			Description:   o.Description,
			ChatSessionId: sessionId,
			Epoch:         epoch,
		})
		for _, ind := range o.Indicators {
			indicators = append(indicators, &entity.Indicator{
				Id:            parseOrNew(ind.ID),
				Name:          ind.Name,
				OutcomeId:     parseOrNew(ind.OutcomeID),
				ChatSessionId: sessionId,
				Epoch:         epoch,
			})
			for _, m := range ind.Methods {
				methods = append(methods, &entity.Method{
					Id:          parseOrNew(m.ID),
					Name:        m.Name,
					Accuracy:    m.Accuracy,
					Cost:        m.Cost,
					EaseOfUse:   m.EaseOfUse,
					Ranked:      m.Ranked,
					IndicatorId: parseOrNew(m.IndicatorID),
				})
			}
		}
	}

	var gaps []*entity.Gap
	for _, g := range plan.Gaps {
		gaps = append(gaps, &entity.Gap{
			Stage:         g.Stage,
			Entity:        g.Entity,
			Reason:        g.Reason,
			ChatSessionId: sessionId,
			Epoch:         epoch,
		})
	}

	if err := uow.OutcomeRepository().CreateBulk(ctx, outcomes); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.IndicatorRepository().CreateBulk(ctx, indicators); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.MethodRepository().CreateBulk(ctx, methods); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.GapRepository().CreateBulk(ctx, gaps); err != nil {
		_ = uow.Rollback()
		return err
	}

	return uow.Commit()
}

// loadPlan rebuilds the in-memory plan tree for one epoch from the database.
func (s *sessionService) loadPlan(ctx context.Context, sessionId uuid.UUID, epoch int) (*store.Plan, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	outcomes, err := uow.OutcomeRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.ByEpoch{Epoch: epoch},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, nil
	}

	indicators, err := uow.IndicatorRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.ByEpoch{Epoch: epoch},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	recommendations, err := uow.RecommendationRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.NotSuperseded{},
	)
	if err != nil {
		return nil, err
	}
	recByIndicator := make(map[uuid.UUID]*entity.Recommendation, len(recommendations))
	for _, rec := range recommendations {
		recByIndicator[rec.IndicatorId] = rec
	}

	plan := &store.Plan{}
	outcomeIndex := make(map[uuid.UUID]int, len(outcomes))
	for i, o := range outcomes {
		outcomeIndex[o.Id] = i
		plan.Outcomes = append(plan.Outcomes, store.Outcome{
			ID:          o.Id.String(),
			Description: o.Description,
		})
	}

	for _, ind := range indicators {
		idx, ok := outcomeIndex[ind.OutcomeId]
		if !ok {
			continue
		}
		storeInd := store.Indicator{
			ID:        ind.Id.String(),
			Name:      ind.Name,
			OutcomeID: ind.OutcomeId.String(),
		}

		methods, err := uow.MethodRepository().FindAll(ctx,
			specification.ByIndicatorID{IndicatorID: ind.Id},
			specification.OrderBy{Field: "created_at"},
		)
		if err != nil {
			return nil, err
		}
		for _, m := range methods {
			storeInd.Methods = append(storeInd.Methods, store.Method{
				ID:          m.Id.String(),
				Name:        m.Name,
				Accuracy:    m.Accuracy,
				Cost:        m.Cost,
				EaseOfUse:   m.EaseOfUse,
				IndicatorID: m.IndicatorId.String(),
				Ranked:      m.Ranked,
			})
		}

		if rec, ok := recByIndicator[ind.Id]; ok {
			storeInd.Recommendation = &store.Recommendation{
				MethodID:       rec.MethodId.String(),
				MethodName:     rec.MethodName,
				Rationale:      rec.Rationale,
				PrioritiesUsed: rec.PrioritiesUsed,
			}
		}

		plan.Outcomes[idx].Indicators = append(plan.Outcomes[idx].Indicators, storeInd)
	}

	gaps, err := uow.GapRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.ByEpoch{Epoch: epoch},
	)
	if err != nil {
		return nil, err
	}
	for _, g := range gaps {
		plan.Gaps = append(plan.Gaps, store.Gap{Stage: g.Stage, Entity: g.Entity, Reason: g.Reason})
	}

	return plan, nil
}

// syncSessionRow mirrors the live session's stage bookkeeping to its row.
// Caller holds the session lock.
func (s *sessionService) syncSessionRow(ctx context.Context, sess *store.Session) {
	sessionId, err := uuid.Parse(sess.ID)
	if err != nil {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil || row == nil {
		return
	}
	row.Stage = sess.Stage
	row.Epoch = int(sess.CurrentEpoch())
	row.DocumentName = sess.DocumentName
	if err := uow.ChatSessionRepository().Update(ctx, row); err != nil {
		s.sysLogger.Warn("SESSION", "Failed to sync session row", map[string]interface{}{"session_id": sess.ID, "error": err.Error()})
	}
}

func (s *sessionService) persistMessage(ctx context.Context, sess *store.Session, role, chat string) *dto.SendMessageResponseChat {
	sessionId, err := uuid.Parse(sess.ID)
	if err != nil {
		return nil
	}

	msg := &entity.ChatMessage{
		Chat:          chat,
		Role:          role,
		ChatSessionId: sessionId,
		Epoch:         int(sess.CurrentEpoch()),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
		s.sysLogger.Warn("SESSION", "Failed to persist message", map[string]interface{}{"session_id": sess.ID, "error": err.Error()})
		return &dto.SendMessageResponseChat{Chat: chat, Role: role, CreatedAt: time.Now()}
	}

	return &dto.SendMessageResponseChat{
		Id:        msg.Id,
		Chat:      msg.Chat,
		Role:      msg.Role,
		CreatedAt: msg.CreatedAt,
	}
}

// appendAssistant records one assistant turn in both the conversation log and
// the database, returning its response DTO.
func (s *sessionService) appendAssistant(ctx context.Context, sess *store.Session, conv *conversation.Manager, text string) *dto.SendMessageResponseChat {
	conv.Append(conversation.RoleAssistant, text)
	return s.persistMessage(ctx, sess, constant.ChatMessageRoleAssistant, text)
}

func (s *sessionService) storeUpload(sessionId, documentName string, document []byte) error {
	if s.uploadsDir == "" {
		return nil
	}
	dir := filepath.Join(s.uploadsDir, sessionId)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := filepath.Base(documentName)
	if name == "" || name == "." {
		name = "document.pdf"
	}
	return os.WriteFile(filepath.Join(dir, name), document, 0o644)
}

func (s *sessionService) summarizer() conversation.SummarizeFunc {
	return func(ctx context.Context, transcript string) (string, error) {
		return s.llmProvider.Generate(ctx, fmt.Sprintf(constant.ConversationSummaryPromptV1, transcript), llm.WithTemperature(0.2))
	}
}

func (s *sessionService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.natsPub == nil {
		return
	}
	if err := s.natsPub.Publish(ctx, events.New(eventType, data)); err != nil {
		s.sysLogger.Warn("EVENTS", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}

func findIndicator(plan *store.Plan, normalizedName string) *store.Indicator {
	if plan == nil {
		return nil
	}
	for i := range plan.Outcomes {
		for j := range plan.Outcomes[i].Indicators {
			if utils.NormalizeName(plan.Outcomes[i].Indicators[j].Name) == normalizedName {
				return &plan.Outcomes[i].Indicators[j]
			}
		}
	}
	return nil
}

func parseOrNew(id string) uuid.UUID {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.New()
}

// summarizePlan renders the staged results as one assistant message,
// including every gap.
func summarizePlan(plan *store.Plan) string {
	indicatorCount := 0
	methodCount := 0
	for _, o := range plan.Outcomes {
		indicatorCount += len(o.Indicators)
		for _, ind := range o.Indicators {
			methodCount += len(ind.Methods)
		}
	}

	msg := fmt.Sprintf("I found %d desired outcomes, %d measurable indicators and %d candidate monitoring methods in your document.",
		len(plan.Outcomes), indicatorCount, methodCount)

	for _, g := range plan.Gaps {
		msg += fmt.Sprintf("\n- %q: %s (%s)", g.Entity, g.Reason, stageLabel(g.Stage))
	}
	return msg
}

func stageLabel(stage string) string {
	switch stage {
	case store.StageResolvingIndicators:
		return "while finding indicators"
	case store.StageResolvingMethods:
		return "while finding methods"
	default:
		return "while extracting outcomes"
	}
}

func planToDTO(plan *store.Plan) *dto.PlanResponse {
	out := &dto.PlanResponse{}
	for _, o := range plan.Outcomes {
		outcomeDTO := dto.OutcomeDTO{
			Id:          o.ID,
			Description: o.Description,
		}
		for _, ind := range o.Indicators {
			indicatorDTO := dto.IndicatorDTO{
				Id:   ind.ID,
				Name: ind.Name,
			}
			for _, m := range ind.Methods {
				indicatorDTO.Methods = append(indicatorDTO.Methods, dto.MethodDTO{
					Id:        m.ID,
					Name:      m.Name,
					Accuracy:  m.Accuracy,
					Cost:      m.Cost,
					EaseOfUse: m.EaseOfUse,
					Ranked:    m.Ranked,
				})
			}
			if ind.Recommendation != nil {
				indicatorDTO.Recommendation = &dto.RecommendationDTO{
					MethodId:       ind.Recommendation.MethodID,
					MethodName:     ind.Recommendation.MethodName,
					Rationale:      ind.Recommendation.Rationale,
					PrioritiesUsed: ind.Recommendation.PrioritiesUsed,
					Superseded:     ind.Recommendation.Superseded,
				}
			}
			outcomeDTO.Indicators = append(outcomeDTO.Indicators, indicatorDTO)
		}
		out.Outcomes = append(out.Outcomes, outcomeDTO)
	}
	for _, g := range plan.Gaps {
		out.Gaps = append(out.Gaps, dto.GapDTO{Stage: g.Stage, Entity: g.Entity, Reason: g.Reason})
	}
	return out
}
