package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regen-advisor-be/pkg/advisor/conversation"
	"regen-advisor-be/pkg/kb"
	"regen-advisor-be/pkg/store"
)

type fakeExtractor struct {
	outcomes []string
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, document []byte) ([]string, error) {
	return f.outcomes, f.err
}

// fakeRetriever answers indicator and method queries from canned maps keyed
// by the entity name embedded in the query.
type fakeRetriever struct {
	mu         sync.Mutex
	indicators map[string]string
	methods    map[string]string
	failFor    string
	calls      int
	maxActive  int
	active     int

	// onGenerate runs inside each call, for stale-epoch injection.
	onGenerate func()
}

func (f *fakeRetriever) Retrieve(ctx context.Context, collection, query string, topK int) ([]kb.Passage, error) {
	return nil, nil
}

func (f *fakeRetriever) RetrieveAndGenerate(ctx context.Context, req kb.GenerateRequest) (*kb.GeneratedAnswer, error) {
	f.mu.Lock()
	f.calls++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.onGenerate != nil {
		f.onGenerate()
	}

	var table map[string]string
	switch req.Collection {
	case "outcome-indicators":
		table = f.indicators
	case "indicator-methods":
		table = f.methods
	default:
		return nil, errors.New("unknown collection " + req.Collection)
	}

	for key, answer := range table {
		if strings.Contains(req.Query, key) {
			if key == f.failFor {
				return nil, &kb.RetrievalFailedError{Collection: req.Collection, Err: errors.New("backend down")}
			}
			return &kb.GeneratedAnswer{Text: answer}, nil
		}
	}
	return &kb.GeneratedAnswer{Text: "[]"}, nil
}

func newOrchestrator(ext Extractor, r kb.Retriever) *Orchestrator {
	return NewOrchestrator(ext, r, DefaultConfig(), log.New(io.Discard, "", 0))
}

func newSession() *store.Session {
	return &store.Session{ID: "sess-1", Stage: store.StageIdle, DocumentName: "project.pdf"}
}

func TestConfigExposesNormalizedSettings(t *testing.T) {
	o := NewOrchestrator(&fakeExtractor{}, &fakeRetriever{}, Config{
		HistoryMaxMessages: 6,
		HistoryMaxChars:    2000,
	}, log.New(io.Discard, "", 0))

	cfg := o.Config()
	assert.Equal(t, 6, cfg.HistoryMaxMessages)
	assert.Equal(t, 2000, cfg.HistoryMaxChars)
	assert.Equal(t, 1, cfg.MaxWorkers, "worker bound is normalized to at least one")
}

func TestRunBuildsFullPlan(t *testing.T) {
	ext := &fakeExtractor{outcomes: []string{"increased bird diversity"}}
	r := &fakeRetriever{
		indicators: map[string]string{
			"increased bird diversity": `["Bird species richness"]`,
		},
		methods: map[string]string{
			"Bird species richness": `[
				{"name": "Camera trap survey", "accuracy": "high", "cost": "high", "ease_of_use": "medium"},
				{"name": "Visual transect count", "accuracy": "medium", "cost": "low", "ease_of_use": "high"}
			]`,
		},
	}

	sess := newSession()
	var stages []string
	plan, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), func(stage string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)

	require.Len(t, plan.Outcomes, 1)
	require.Len(t, plan.Outcomes[0].Indicators, 1)
	ind := plan.Outcomes[0].Indicators[0]
	assert.Equal(t, "Bird species richness", ind.Name)
	assert.Equal(t, plan.Outcomes[0].ID, ind.OutcomeID)
	require.Len(t, ind.Methods, 2)
	for _, m := range ind.Methods {
		assert.True(t, m.Ranked, "method %q has all three ratings", m.Name)
		assert.Equal(t, ind.ID, m.IndicatorID)
	}
	assert.Empty(t, plan.Gaps)

	assert.Equal(t, store.StageAwaitingPreferences, sess.Stage)
	assert.Equal(t, []string{"bird species richness"}, sess.PendingIndicators)
	assert.Equal(t, []string{
		store.StageExtractingOutcomes,
		store.StageResolvingIndicators,
		store.StageResolvingMethods,
		store.StageAwaitingPreferences,
	}, stages)
}

func TestRunNoOutcomesFinishesImmediately(t *testing.T) {
	ext := &fakeExtractor{outcomes: nil}
	r := &fakeRetriever{}

	sess := newSession()
	plan, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.NoError(t, err)

	assert.Empty(t, plan.Outcomes)
	assert.Equal(t, store.StageDone, sess.Stage)
	assert.Zero(t, r.calls, "no retrieval stages run without outcomes")
}

func TestRunExtractionFailurePropagates(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("document service unavailable")}

	sess := newSession()
	_, err := newOrchestrator(ext, &fakeRetriever{}).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.Error(t, err)
	assert.Equal(t, store.StageDone, sess.Stage)
}

func TestRunRecordsGapsForEmptyAndFailedStages(t *testing.T) {
	ext := &fakeExtractor{outcomes: []string{"improved soil health", "cleaner waterways"}}
	r := &fakeRetriever{
		indicators: map[string]string{
			"improved soil health": `["Soil organic carbon"]`,
			"cleaner waterways":    "cleaner waterways", // marked failing below
		},
		methods: map[string]string{
			"Soil organic carbon": `[]`,
		},
		failFor: "cleaner waterways",
	}

	sess := newSession()
	plan, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.NoError(t, err)

	require.Len(t, plan.Gaps, 2)
	byEntity := map[string]store.Gap{}
	for _, g := range plan.Gaps {
		byEntity[g.Entity] = g
	}
	assert.Equal(t, store.GapUnavailable, byEntity["cleaner waterways"].Reason)
	assert.Equal(t, store.StageResolvingIndicators, byEntity["cleaner waterways"].Stage)
	assert.Equal(t, store.GapNoResults, byEntity["Soil organic carbon"].Reason)
	assert.Equal(t, store.StageResolvingMethods, byEntity["Soil organic carbon"].Stage)

	assert.Equal(t, store.StageDone, sess.Stage, "nothing rankable, so nothing to await")
	assert.Empty(t, sess.PendingIndicators)
}

func TestRunDeduplicatesIndicatorsAcrossOutcomes(t *testing.T) {
	ext := &fakeExtractor{outcomes: []string{"improved soil health", "higher crop yield"}}
	r := &fakeRetriever{
		indicators: map[string]string{
			"improved soil health": `["Soil organic carbon", "Earthworm density"]`,
			"higher crop yield":    `["soil  organic   CARBON", "Grain yield per hectare"]`,
		},
		methods: map[string]string{},
	}

	sess := newSession()
	plan, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.NoError(t, err)

	require.Len(t, plan.Outcomes, 2)
	first := plan.Outcomes[0].Indicators
	second := plan.Outcomes[1].Indicators
	require.Len(t, first, 2, "first outcome keeps both indicators")
	require.Len(t, second, 1, "duplicate attaches to the first outcome only")
	assert.Equal(t, "Grain yield per hectare", second[0].Name)
}

func TestRunCapsIndicatorsPerOutcome(t *testing.T) {
	ext := &fakeExtractor{outcomes: []string{"improved soil health"}}
	r := &fakeRetriever{
		indicators: map[string]string{
			"improved soil health": `["i1", "i2", "i3", "i4", "i5", "i6", "i7"]`,
		},
		methods: map[string]string{},
	}

	sess := newSession()
	plan, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.NoError(t, err)
	assert.Len(t, plan.Outcomes[0].Indicators, 5)
}

func TestRunMarksIncompleteMethodsUnranked(t *testing.T) {
	ext := &fakeExtractor{outcomes: []string{"increased bird diversity"}}
	r := &fakeRetriever{
		indicators: map[string]string{
			"increased bird diversity": `["Bird species richness"]`,
		},
		methods: map[string]string{
			"Bird species richness": `[
				{"name": "Acoustic monitoring", "accuracy": "high"},
				{"name": "Visual transect count", "accuracy": "medium", "cost": "low", "ease_of_use": "high"}
			]`,
		},
	}

	sess := newSession()
	plan, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.NoError(t, err)

	methods := plan.Outcomes[0].Indicators[0].Methods
	require.Len(t, methods, 2)
	assert.False(t, methods[0].Ranked, "missing cost and ease of use")
	assert.True(t, methods[1].Ranked)
	assert.Equal(t, store.StageAwaitingPreferences, sess.Stage)
}

func TestRunBoundsFanOutWorkers(t *testing.T) {
	outcomes := make([]string, 12)
	indicators := map[string]string{}
	for i := range outcomes {
		outcomes[i] = "outcome-" + string(rune('a'+i))
		indicators[outcomes[i]] = `[]`
	}
	ext := &fakeExtractor{outcomes: outcomes}
	r := &fakeRetriever{indicators: indicators, methods: map[string]string{}}

	sess := newSession()
	_, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, r.maxActive, 5, "fan-out must stay within the worker bound")
	assert.Equal(t, 12, r.calls)
}

func TestRunDiscardsResultsAfterRestart(t *testing.T) {
	ext := &fakeExtractor{outcomes: []string{"improved soil health"}}
	sess := newSession()
	r := &fakeRetriever{
		indicators: map[string]string{
			"improved soil health": `["Soil organic carbon"]`,
		},
		methods: map[string]string{},
	}
	r.onGenerate = func() {
		sess.BumpEpoch() // restart lands while stage 2 is in flight
	}

	_, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), nil)
	require.ErrorIs(t, err, ErrStaleEpoch)
	assert.Nil(t, sess.Plan, "stale results must never be applied")
	assert.Empty(t, sess.PendingIndicators)
}

func TestRunRestartFromAnotherGoroutineDiscardsResults(t *testing.T) {
	ext := &fakeExtractor{outcomes: []string{"improved soil health"}}
	sess := newSession()
	r := &fakeRetriever{
		indicators: map[string]string{
			"improved soil health": `["Soil organic carbon"]`,
		},
		methods: map[string]string{},
	}

	// A restart request bumps the epoch from its own goroutine while stage 2
	// is mid-retrieval. The retrieval call blocks until the bump has landed,
	// so the run is guaranteed to observe it.
	restartRequested := make(chan struct{})
	restartDone := make(chan struct{})
	var once sync.Once
	r.onGenerate = func() {
		once.Do(func() { close(restartRequested) })
		<-restartDone
	}
	go func() {
		<-restartRequested
		sess.BumpEpoch()
		sess.Update(func() { sess.Stage = store.StageIdle })
		close(restartDone)
	}()

	var stages []string
	_, err := newOrchestrator(ext, r).Run(context.Background(), sess, []byte("%PDF-"), conversation.NewManager(nil), func(stage string) {
		stages = append(stages, stage)
	})
	require.ErrorIs(t, err, ErrStaleEpoch)

	assert.Nil(t, sess.Plan, "stale results must never be applied")
	assert.Empty(t, sess.PendingIndicators)
	assert.Equal(t, store.StageIdle, sess.Stage, "stale run must not overwrite the restarted stage")
	assert.NotContains(t, stages, store.StageResolvingMethods, "no stage transitions after the restart")
	assert.EqualValues(t, 1, sess.CurrentEpoch())
}
