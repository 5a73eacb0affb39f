package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"regen-advisor-be/internal/constant"
	"regen-advisor-be/pkg/advisor/conversation"
	"regen-advisor-be/pkg/advisor/selector"
	"regen-advisor-be/pkg/kb"
	"regen-advisor-be/pkg/store"
	"regen-advisor-be/pkg/utils"
)

// ErrStaleEpoch is returned when the session was restarted while a pipeline
// run was in flight. The run's results are discarded, never applied.
var ErrStaleEpoch = errors.New("session restarted during pipeline run, results discarded")

// Extractor is the stage-1 collaborator, satisfied by
// extractor.OutcomeExtractor.
type Extractor interface {
	Extract(ctx context.Context, document []byte) ([]string, error)
}

// ProgressFunc is invoked on every stage transition so callers can stream
// progress to the user.
type ProgressFunc func(stage string)

type Config struct {
	IndicatorCollection string
	MethodCollection    string
	ModelRef            string

	// MaxWorkers bounds the per-stage fan-out.
	MaxWorkers int

	// MaxIndicatorsPerOutcome caps stage-2 results per outcome; 0 keeps all.
	MaxIndicatorsPerOutcome int

	HistoryMaxMessages int
	HistoryMaxChars    int
}

func DefaultConfig() Config {
	return Config{
		IndicatorCollection:     constant.CollectionOutcomeIndicators,
		MethodCollection:        constant.CollectionIndicatorMethods,
		MaxWorkers:              5,
		MaxIndicatorsPerOutcome: 5,
		HistoryMaxMessages:      10,
		HistoryMaxChars:         4000,
	}
}

// Orchestrator runs the staged document pipeline: extract outcomes, resolve
// indicators per outcome, resolve methods per indicator. Stages 2 and 3 fan
// out over a bounded worker pool; every empty or failed stage result is
// recorded as a plan gap instead of being silently dropped.
type Orchestrator struct {
	extractor Extractor
	retriever kb.Retriever
	cfg       Config
	logger    *log.Logger
}

func NewOrchestrator(ext Extractor, retriever kb.Retriever, cfg Config, logger *log.Logger) *Orchestrator {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	return &Orchestrator{
		extractor: ext,
		retriever: retriever,
		cfg:       cfg,
		logger:    logger,
	}
}

// Config returns the normalized configuration the orchestrator runs with, so
// callers rendering conversation context can reuse the same history bounds.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Run executes the pipeline for one uploaded document, mutating the session's
// stage and plan as it goes. The session's epoch is captured at entry; every
// write to the session is epoch-gated, so a restart that lands mid-run makes
// the run abort with ErrStaleEpoch without ever touching the session again.
func (o *Orchestrator) Run(
	ctx context.Context,
	sess *store.Session,
	document []byte,
	conv *conversation.Manager,
	progress ProgressFunc,
) (*store.Plan, error) {
	epoch := sess.CurrentEpoch()
	var docName string
	sess.Update(func() { docName = sess.DocumentName })

	if !o.setStage(sess, epoch, store.StageExtractingOutcomes, progress) {
		return nil, ErrStaleEpoch
	}

	descriptions, err := o.extractor.Extract(ctx, document)
	if err != nil {
		sess.UpdateIfEpoch(epoch, func() { sess.Stage = store.StageDone })
		return nil, err
	}

	plan := &store.Plan{}
	for _, desc := range descriptions {
		plan.Outcomes = append(plan.Outcomes, store.Outcome{
			ID:          uuid.NewString(),
			Description: desc,
		})
	}

	if len(plan.Outcomes) == 0 {
		o.logger.Printf("[PIPELINE] Document %q yielded no outcomes", docName)
		if !sess.UpdateIfEpoch(epoch, func() {
			sess.Plan = plan
			sess.Stage = store.StageDone
		}) {
			return nil, ErrStaleEpoch
		}
		o.logger.Printf("[PIPELINE] Session %s -> %s", sess.ID, store.StageDone)
		if progress != nil {
			progress(store.StageDone)
		}
		return plan, nil
	}

	o.logger.Printf("[PIPELINE] Extracted %d outcomes from %q", len(plan.Outcomes), docName)

	transcript := conv.RenderForRetrieval(o.cfg.HistoryMaxMessages, o.cfg.HistoryMaxChars)

	if !o.setStage(sess, epoch, store.StageResolvingIndicators, progress) {
		return nil, ErrStaleEpoch
	}
	indicatorGaps := o.resolveIndicators(ctx, plan, transcript)
	if sess.CurrentEpoch() != epoch {
		return nil, ErrStaleEpoch
	}
	plan.Gaps = append(plan.Gaps, indicatorGaps...)

	if !o.setStage(sess, epoch, store.StageResolvingMethods, progress) {
		return nil, ErrStaleEpoch
	}
	methodGaps := o.resolveMethods(ctx, plan, transcript)
	if sess.CurrentEpoch() != epoch {
		return nil, ErrStaleEpoch
	}
	plan.Gaps = append(plan.Gaps, methodGaps...)

	pending := pendingIndicators(plan)
	final := store.StageDone
	if len(pending) > 0 {
		final = store.StageAwaitingPreferences
	}

	if !sess.UpdateIfEpoch(epoch, func() {
		sess.Plan = plan
		sess.PendingIndicators = pending
		sess.AskedIndicators = make(map[string]bool)
		sess.Stage = final
	}) {
		return nil, ErrStaleEpoch
	}
	o.logger.Printf("[PIPELINE] Session %s -> %s", sess.ID, final)
	if progress != nil {
		progress(final)
	}

	return plan, nil
}

// resolveIndicators queries the indicator collection once per outcome on the
// worker pool, then deduplicates globally by normalized name. An indicator
// named by several outcomes is attached to the first outcome that produced
// it, in plan order.
func (o *Orchestrator) resolveIndicators(ctx context.Context, plan *store.Plan, transcript string) []store.Gap {
	type result struct {
		names []string
		gap   *store.Gap
	}
	results := make([]result, len(plan.Outcomes))

	o.fanOut(len(plan.Outcomes), func(i int) {
		outcome := plan.Outcomes[i]
		answer, err := o.retriever.RetrieveAndGenerate(ctx, kb.GenerateRequest{
			Collection:   o.cfg.IndicatorCollection,
			Query:        fmt.Sprintf(constant.IndicatorQueryTemplateV1, outcome.Description),
			ModelRef:     o.cfg.ModelRef,
			Conversation: transcript,
		})
		if err != nil {
			o.logger.Printf("[WARN] Indicator retrieval failed for outcome %q: %v", outcome.Description, err)
			results[i].gap = &store.Gap{Stage: store.StageResolvingIndicators, Entity: outcome.Description, Reason: store.GapUnavailable}
			return
		}

		names, err := utils.DecodeStringArray(answer.Text)
		if err != nil {
			o.logger.Printf("[WARN] Unparseable indicator response for outcome %q: %v", outcome.Description, err)
			results[i].gap = &store.Gap{Stage: store.StageResolvingIndicators, Entity: outcome.Description, Reason: store.GapNoResults}
			return
		}
		if o.cfg.MaxIndicatorsPerOutcome > 0 && len(names) > o.cfg.MaxIndicatorsPerOutcome {
			names = names[:o.cfg.MaxIndicatorsPerOutcome]
		}
		results[i].names = names
	})

	var gaps []store.Gap
	seen := make(map[string]bool)
	for i := range plan.Outcomes {
		if results[i].gap != nil {
			gaps = append(gaps, *results[i].gap)
			continue
		}
		if len(results[i].names) == 0 {
			gaps = append(gaps, store.Gap{Stage: store.StageResolvingIndicators, Entity: plan.Outcomes[i].Description, Reason: store.GapNoResults})
			continue
		}
		for _, name := range results[i].names {
			key := utils.NormalizeName(name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			plan.Outcomes[i].Indicators = append(plan.Outcomes[i].Indicators, store.Indicator{
				ID:        uuid.NewString(),
				Name:      name,
				OutcomeID: plan.Outcomes[i].ID,
			})
		}
	}

	return gaps
}

// resolveMethods queries the method collection once per indicator on the
// worker pool. Methods missing any attribute rating stay listed but are
// marked unranked.
func (o *Orchestrator) resolveMethods(ctx context.Context, plan *store.Plan, transcript string) []store.Gap {
	indicators := planIndicators(plan)

	type result struct {
		methods []MethodPayload
		gap     *store.Gap
	}
	results := make([]result, len(indicators))

	o.fanOut(len(indicators), func(i int) {
		ind := indicators[i]
		answer, err := o.retriever.RetrieveAndGenerate(ctx, kb.GenerateRequest{
			Collection:   o.cfg.MethodCollection,
			Query:        fmt.Sprintf(constant.MethodQueryTemplateV1, ind.Name),
			ModelRef:     o.cfg.ModelRef,
			Conversation: transcript,
		})
		if err != nil {
			o.logger.Printf("[WARN] Method retrieval failed for indicator %q: %v", ind.Name, err)
			results[i].gap = &store.Gap{Stage: store.StageResolvingMethods, Entity: ind.Name, Reason: store.GapUnavailable}
			return
		}

		methods, err := DecodeMethodArray(answer.Text)
		if err != nil {
			o.logger.Printf("[WARN] Unparseable method response for indicator %q: %v", ind.Name, err)
			results[i].gap = &store.Gap{Stage: store.StageResolvingMethods, Entity: ind.Name, Reason: store.GapNoResults}
			return
		}
		results[i].methods = methods
	})

	var gaps []store.Gap
	for i, ind := range indicators {
		if results[i].gap != nil {
			gaps = append(gaps, *results[i].gap)
			continue
		}
		if len(results[i].methods) == 0 {
			gaps = append(gaps, store.Gap{Stage: store.StageResolvingMethods, Entity: ind.Name, Reason: store.GapNoResults})
			continue
		}
		seen := make(map[string]bool)
		for _, payload := range results[i].methods {
			key := utils.NormalizeName(payload.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			ind.Methods = append(ind.Methods, store.Method{
				ID:          uuid.NewString(),
				Name:        payload.Name,
				Accuracy:    payload.Accuracy,
				Cost:        payload.Cost,
				EaseOfUse:   payload.EaseOfUse,
				IndicatorID: ind.ID,
				Ranked:      selector.Rankable(payload.Accuracy, payload.Cost, payload.EaseOfUse),
			})
		}
	}

	return gaps
}

// fanOut runs n tasks on at most cfg.MaxWorkers goroutines and waits for all
// of them. Tasks write only to their own result slot, so no shared mutation.
func (o *Orchestrator) fanOut(n int, task func(i int)) {
	sem := make(chan struct{}, o.cfg.MaxWorkers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			task(i)
		}(i)
	}
	wg.Wait()
}

// setStage records a stage transition on the session, epoch-gated. A false
// return means a restart invalidated the run.
func (o *Orchestrator) setStage(sess *store.Session, epoch int64, stage string, progress ProgressFunc) bool {
	if !sess.UpdateIfEpoch(epoch, func() { sess.Stage = stage }) {
		return false
	}
	o.logger.Printf("[PIPELINE] Session %s -> %s", sess.ID, stage)
	if progress != nil {
		progress(stage)
	}
	return true
}

// planIndicators flattens the plan's indicators in plan order as pointers so
// stage 3 can attach methods in place.
func planIndicators(plan *store.Plan) []*store.Indicator {
	var out []*store.Indicator
	for i := range plan.Outcomes {
		for j := range plan.Outcomes[i].Indicators {
			out = append(out, &plan.Outcomes[i].Indicators[j])
		}
	}
	return out
}

// pendingIndicators lists normalized names of indicators that have at least
// one ranked method, in plan order. Only these can receive a recommendation.
func pendingIndicators(plan *store.Plan) []string {
	var out []string
	for _, outcome := range plan.Outcomes {
		for _, ind := range outcome.Indicators {
			for _, m := range ind.Methods {
				if m.Ranked {
					out = append(out, utils.NormalizeName(ind.Name))
					break
				}
			}
		}
	}
	return out
}
