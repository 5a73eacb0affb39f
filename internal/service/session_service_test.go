package service

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"regen-advisor-be/internal/constant"
	"regen-advisor-be/internal/dto"
	"regen-advisor-be/internal/entity"
	"regen-advisor-be/internal/repository/contract"
	"regen-advisor-be/internal/repository/memory"
	"regen-advisor-be/internal/repository/specification"
	"regen-advisor-be/internal/repository/unitofwork"
	"regen-advisor-be/pkg/advisor/conversation"
	"regen-advisor-be/pkg/advisor/pipeline"
	"regen-advisor-be/pkg/advisor/selector"
	"regen-advisor-be/pkg/kb"
	"regen-advisor-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() *store.Plan {
	return &store.Plan{
		Outcomes: []store.Outcome{
			{
				ID:          "o1",
				Description: "improved soil health",
				Indicators: []store.Indicator{
					{
						ID:   "i1",
						Name: "Soil Organic Carbon",
						Methods: []store.Method{
							{ID: "m1", Name: "Lab analysis", Accuracy: "very high", Cost: "high", EaseOfUse: "low", Ranked: true},
							{ID: "m2", Name: "Colour chart", Accuracy: "low", Cost: "very low", EaseOfUse: "very high", Ranked: true},
						},
					},
					{
						ID:   "i2",
						Name: "Earthworm abundance",
						Methods: []store.Method{
							{ID: "m3", Name: "Mustard extraction", Accuracy: "medium", Cost: "", EaseOfUse: "high", Ranked: false},
						},
					},
				},
			},
		},
		Gaps: []store.Gap{
			{Stage: store.StageResolvingMethods, Entity: "water infiltration", Reason: "no results"},
		},
	}
}

func TestFindIndicatorMatchesNormalizedName(t *testing.T) {
	plan := testPlan()

	ind := findIndicator(plan, "soil organic carbon")
	if assert.NotNil(t, ind) {
		assert.Equal(t, "i1", ind.ID)
	}

	assert.Nil(t, findIndicator(plan, "bird species richness"))
	assert.Nil(t, findIndicator(nil, "soil organic carbon"))
}

func TestFindIndicatorReturnsPointerIntoPlan(t *testing.T) {
	plan := testPlan()

	ind := findIndicator(plan, "soil organic carbon")
	ind.Recommendation = &store.Recommendation{MethodName: "Lab analysis"}

	assert.NotNil(t, plan.Outcomes[0].Indicators[0].Recommendation)
}

func TestRehydratedStageCollapsesMidPipelineStages(t *testing.T) {
	tests := []struct {
		stored string
		want   string
	}{
		{store.StageExtractingOutcomes, store.StageDone},
		{store.StageResolvingIndicators, store.StageDone},
		{store.StageResolvingMethods, store.StageDone},
		{store.StageRecommending, store.StageDone},
		{store.StageAwaitingPreferences, store.StageAwaitingPreferences},
		{store.StageIdle, store.StageIdle},
		{store.StageDone, store.StageDone},
		{"", store.StageIdle},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rehydratedStage(tt.stored), "stored stage %q", tt.stored)
	}
}

func TestReopenRecommendationsQueuesOnlyRankedIndicators(t *testing.T) {
	s := &sessionService{}
	sess := &store.Session{
		Stage: store.StageDone,
		Plan:  testPlan(),
	}

	s.reopenRecommendations(sess)

	assert.Equal(t, store.StageAwaitingPreferences, sess.Stage)
	assert.Equal(t, []string{"soil organic carbon"}, sess.PendingIndicators)
	// The new priority statement is already on record, so no re-asking.
	assert.True(t, sess.AskedIndicators["soil organic carbon"])
}

func TestSummarizePlanCountsAndListsGaps(t *testing.T) {
	msg := summarizePlan(testPlan())

	assert.Contains(t, msg, "1 desired outcomes")
	assert.Contains(t, msg, "2 measurable indicators")
	assert.Contains(t, msg, "3 candidate monitoring methods")
	assert.Contains(t, msg, `"water infiltration": no results`)
	assert.Contains(t, msg, "while finding methods")
}

func TestPlanToDTOPreservesTree(t *testing.T) {
	plan := testPlan()
	plan.Outcomes[0].Indicators[0].Recommendation = &store.Recommendation{
		MethodID:       "m2",
		MethodName:     "Colour chart",
		Rationale:      "cheapest option",
		PrioritiesUsed: "low cost",
	}

	out := planToDTO(plan)

	assert.Len(t, out.Outcomes, 1)
	assert.Len(t, out.Outcomes[0].Indicators, 2)
	assert.Len(t, out.Outcomes[0].Indicators[0].Methods, 2)
	assert.False(t, out.Outcomes[0].Indicators[1].Methods[0].Ranked)
	if assert.NotNil(t, out.Outcomes[0].Indicators[0].Recommendation) {
		assert.Equal(t, "Colour chart", out.Outcomes[0].Indicators[0].Recommendation.MethodName)
	}
	assert.Nil(t, out.Outcomes[0].Indicators[1].Recommendation)
	assert.Len(t, out.Gaps, 1)
}

func TestParseOrNewFallsBackToFreshId(t *testing.T) {
	known := parseOrNew("7f9c24e5-2f3a-4b57-9a8e-0d1c2b3a4f5d")
	assert.Equal(t, "7f9c24e5-2f3a-4b57-9a8e-0d1c2b3a4f5d", known.String())

	fresh := parseOrNew("not-a-uuid")
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", fresh.String())
}

// In-memory repository fakes, enough of the unit of work for session and
// message persistence.

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeUow struct {
	sessions *fakeChatSessionRepo
	messages *fakeChatMessageRepo
	outcomes *fakeOutcomeRepo
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		sessions: &fakeChatSessionRepo{rows: map[uuid.UUID]*entity.ChatSession{}},
		messages: &fakeChatMessageRepo{},
		outcomes: &fakeOutcomeRepo{},
	}
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return u.sessions }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return u.messages }
func (u *fakeUow) OutcomeRepository() contract.OutcomeRepository         { return u.outcomes }
func (u *fakeUow) IndicatorRepository() contract.IndicatorRepository     { return nil }
func (u *fakeUow) MethodRepository() contract.MethodRepository           { return nil }
func (u *fakeUow) RecommendationRepository() contract.RecommendationRepository {
	return nil
}
func (u *fakeUow) GapRepository() contract.GapRepository { return nil }
func (u *fakeUow) KnowledgeCollectionRepository() contract.KnowledgeCollectionRepository {
	return nil
}
func (u *fakeUow) KnowledgeEntryRepository() contract.KnowledgeEntryRepository { return nil }
func (u *fakeUow) KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository {
	return nil
}

type fakeChatSessionRepo struct {
	rows map[uuid.UUID]*entity.ChatSession
}

func (r *fakeChatSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	r.rows[session.Id] = session
	return nil
}

func (r *fakeChatSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	r.rows[session.Id] = session
	return nil
}

func (r *fakeChatSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeChatSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.rows[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeChatSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	out := make([]*entity.ChatSession, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeChatSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.rows)), nil
}

type fakeChatMessageRepo struct {
	rows []*entity.ChatMessage
}

func (r *fakeChatMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	message.Id = uuid.New()
	message.CreatedAt = time.Unix(int64(len(r.rows)), 0)
	r.rows = append(r.rows, message)
	return nil
}

func (r *fakeChatMessageRepo) CreateBulk(ctx context.Context, messages []*entity.ChatMessage) error {
	for _, msg := range messages {
		if err := r.Create(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeChatMessageRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *fakeChatMessageRepo) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error {
	kept := r.rows[:0]
	for _, msg := range r.rows {
		if msg.ChatSessionId != chatSessionId {
			kept = append(kept, msg)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeChatMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeChatMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	for _, msg := range r.rows {
		if messageMatches(msg, specs) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *fakeChatMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func messageMatches(msg *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByChatSessionID:
			if msg.ChatSessionId != sp.ChatSessionID {
				return false
			}
		case specification.ByEpoch:
			if msg.Epoch != sp.Epoch {
				return false
			}
		}
	}
	return true
}

type fakeOutcomeRepo struct{}

func (fakeOutcomeRepo) Create(ctx context.Context, outcome *entity.Outcome) error        { return nil }
func (fakeOutcomeRepo) CreateBulk(ctx context.Context, outcomes []*entity.Outcome) error { return nil }
func (fakeOutcomeRepo) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error {
	return nil
}
func (fakeOutcomeRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Outcome, error) {
	return nil, nil
}
func (fakeOutcomeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Outcome, error) {
	return nil, nil
}
func (fakeOutcomeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type captureRetriever struct {
	req kb.GenerateRequest
}

func (c *captureRetriever) Retrieve(ctx context.Context, collection, query string, topK int) ([]kb.Passage, error) {
	return nil, nil
}

func (c *captureRetriever) RetrieveAndGenerate(ctx context.Context, req kb.GenerateRequest) (*kb.GeneratedAnswer, error) {
	c.req = req
	return &kb.GeneratedAnswer{Text: "Grounded answer."}, nil
}

func newServiceFixture(retr kb.Retriever, cfg pipeline.Config) (*sessionService, *fakeUow) {
	uow := newFakeUow()
	return &sessionService{
		uowFactory:   &fakeUowFactory{uow: uow},
		sessions:     memory.NewSessionRepository(),
		orchestrator: pipeline.NewOrchestrator(nil, retr, cfg, log.New(io.Discard, "", 0)),
		retriever:    retr,
		sysLogger:    nopLogger{},
	}, uow
}

func TestRestartScopesHistoryToCurrentEpoch(t *testing.T) {
	s, uow := newServiceFixture(&captureRetriever{}, pipeline.DefaultConfig())
	ctx := context.Background()

	id := uuid.New()
	uow.sessions.rows[id] = &entity.ChatSession{Id: id, Stage: store.StageDone}
	sess := &store.Session{ID: id.String(), Stage: store.StageDone}
	conv := conversation.NewManager(nil)
	s.sessions.Save(sess, conv)

	s.persistMessage(ctx, sess, constant.ChatMessageRoleUser, "I prioritize low cost")
	conv.Append(conversation.RoleUser, "I prioritize low cost")

	res, err := s.Restart(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Epoch)

	history, err := s.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1, "pre-restart turns drop out of history")
	assert.Equal(t, constant.RestartNotice, history[0].Chat)
	assert.Equal(t, 1, uow.sessions.rows[id].Epoch, "epoch bump reaches the session row")
}

func TestRehydrationReplaysOnlyCurrentEpochTurns(t *testing.T) {
	s, uow := newServiceFixture(&captureRetriever{}, pipeline.DefaultConfig())
	ctx := context.Background()

	id := uuid.New()
	uow.sessions.rows[id] = &entity.ChatSession{Id: id, Stage: store.StageDone, Epoch: 1}
	uow.messages.rows = []*entity.ChatMessage{
		{Id: uuid.New(), ChatSessionId: id, Epoch: 0, Role: constant.ChatMessageRoleUser, Chat: "I prioritize low cost"},
		{Id: uuid.New(), ChatSessionId: id, Epoch: 1, Role: constant.ChatMessageRoleAssistant, Chat: constant.RestartNotice},
	}

	sess, conv, err := s.loadSession(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sess.CurrentEpoch())

	history := conv.History()
	require.Len(t, history, 1, "only the current epoch's turns are replayed")
	assert.Equal(t, constant.RestartNotice, history[0].Content)

	_, found := selector.LatestPriorities(history)
	assert.False(t, found, "a pre-restart priority statement must not leak into the rebuilt conversation")
}

func TestAnswerQuestionHonorsConfiguredHistoryBounds(t *testing.T) {
	retr := &captureRetriever{}
	cfg := pipeline.DefaultConfig()
	cfg.HistoryMaxMessages = 2
	s, uow := newServiceFixture(retr, cfg)
	ctx := context.Background()

	id := uuid.New()
	uow.sessions.rows[id] = &entity.ChatSession{Id: id, Stage: store.StageDone}
	sess := &store.Session{ID: id.String(), Stage: store.StageDone}
	conv := conversation.NewManager(nil)
	conv.Append(conversation.RoleUser, "tell me about earthworms")
	conv.Append(conversation.RoleAssistant, "Earthworms indicate soil life.")
	conv.Append(conversation.RoleUser, "which methods measure soil carbon?")

	res := &dto.SendMessageResponse{}
	err := s.answerQuestion(ctx, sess, conv, "which methods measure soil carbon?", res)
	require.NoError(t, err)

	assert.Contains(t, retr.req.Conversation, "which methods measure soil carbon?")
	assert.NotContains(t, retr.req.Conversation, "tell me about earthworms",
		"turns beyond the configured history bound stay out of the retrieval context")
}
