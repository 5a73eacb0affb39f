package selector

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"regen-advisor-be/pkg/advisor/conversation"
	"regen-advisor-be/pkg/store"
)

// Result is the outcome of one selection attempt for an indicator: either a
// clarifying question is still pending (Awaiting), a recommendation was
// produced, or no method could be ranked at all.
type Result struct {
	Awaiting       bool
	Question       string
	Recommendation *store.Recommendation
	RunnerUp       *store.Method
}

// Selector scores an indicator's methods against the user's stated
// priorities and picks the best fit deterministically.
type Selector struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Selector {
	return &Selector{logger: logger}
}

// LatestPriorities scans the conversation newest-first for the most recent
// user turn containing an explicit priority statement.
func LatestPriorities(history []conversation.Message) (*Priorities, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != conversation.RoleUser {
			continue
		}
		if p, ok := ParsePriorities(history[i].Content); ok {
			return p, true
		}
	}
	return nil, false
}

// ElicitAndRecommend selects a method for the indicator, or asks for the
// user's priorities when none have been stated yet. The clarifying question
// is emitted at most once per indicator; once asked, further turns without a
// priority statement yield an empty Question so the caller can fall through
// to free-form answering.
func (s *Selector) ElicitAndRecommend(
	indicator store.Indicator,
	history []conversation.Message,
	alreadyAsked bool,
) Result {
	pri, ok := LatestPriorities(history)
	if !ok {
		res := Result{Awaiting: true}
		if !alreadyAsked {
			res.Question = ClarifyingQuestion(indicator.Name)
		}
		return res
	}

	ranked := rankedCandidates(indicator.Methods)
	if len(ranked) == 0 {
		s.logger.Printf("[SELECT] Indicator %q has no fully rated methods, cannot rank", indicator.Name)
		return Result{}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := score(ranked[i], pri), score(ranked[j], pri)
		if si != sj {
			return si > sj
		}
		ei, _ := Level(ranked[i].EaseOfUse)
		ej, _ := Level(ranked[j].EaseOfUse)
		if ei != ej {
			return ei > ej
		}
		return ranked[i].Name < ranked[j].Name
	})

	winner := ranked[0]
	var runnerUp *store.Method
	if len(ranked) > 1 {
		runnerUp = &ranked[1]
	}

	s.logger.Printf("[SELECT] Indicator %q: selected %q from %d candidates", indicator.Name, winner.Name, len(ranked))

	return Result{
		Recommendation: &store.Recommendation{
			MethodID:       winner.ID,
			MethodName:     winner.Name,
			Rationale:      rationale(winner, runnerUp, pri),
			PrioritiesUsed: pri.Statement,
		},
		RunnerUp: runnerUp,
	}
}

// ClarifyingQuestion is the single preference question asked per indicator.
func ClarifyingQuestion(indicatorName string) string {
	return fmt.Sprintf(
		"To recommend a monitoring method for %q, what matters most to you: accuracy, cost, or ease of use? You can also trade one off against another, for example \"accuracy over cost\".",
		indicatorName,
	)
}

func rankedCandidates(methods []store.Method) []store.Method {
	var out []store.Method
	for _, m := range methods {
		if m.Ranked && Rankable(m.Accuracy, m.Cost, m.EaseOfUse) {
			out = append(out, m)
		}
	}
	return out
}

// score is a weighted sum of the three ordinal levels. Cost is inverted so a
// cheaper method scores higher.
func score(m store.Method, pri *Priorities) float64 {
	acc, _ := Level(m.Accuracy)
	cost, _ := Level(m.Cost)
	ease, _ := Level(m.EaseOfUse)
	return pri.Accuracy*float64(acc) + pri.Cost*float64(6-cost) + pri.Ease*float64(ease)
}

// rationale explains the pick in terms of the prioritized attributes and
// names the trade-off against the runner-up. Deterministic for a given
// winner, runner-up and priority statement.
func rationale(winner store.Method, runnerUp *store.Method, pri *Priorities) string {
	focus := strings.Join(pri.Prioritized(), " and ")

	var b strings.Builder
	fmt.Fprintf(&b, "%s best matches your stated priorities (%s): accuracy %s, cost %s, ease of use %s.",
		winner.Name, focus, winner.Accuracy, winner.Cost, winner.EaseOfUse)

	if runnerUp == nil {
		b.WriteString(" It is the only fully rated method for this indicator.")
		return b.String()
	}

	fmt.Fprintf(&b, " Compared with %s (accuracy %s, cost %s, ease of use %s), it trades away %s for a better fit on %s.",
		runnerUp.Name, runnerUp.Accuracy, runnerUp.Cost, runnerUp.EaseOfUse,
		tradedAway(winner, *runnerUp, pri), focus)

	return b.String()
}

// tradedAway names the attributes where the runner-up beats the winner, the
// concession the user's priorities accept.
func tradedAway(winner, runnerUp store.Method, pri *Priorities) string {
	var losses []string

	wa, _ := Level(winner.Accuracy)
	ra, _ := Level(runnerUp.Accuracy)
	if ra > wa {
		losses = append(losses, fmt.Sprintf("accuracy (%s vs %s)", winner.Accuracy, runnerUp.Accuracy))
	}

	wc, _ := Level(winner.Cost)
	rc, _ := Level(runnerUp.Cost)
	if rc < wc {
		losses = append(losses, fmt.Sprintf("cost (%s vs %s)", winner.Cost, runnerUp.Cost))
	}

	we, _ := Level(winner.EaseOfUse)
	re, _ := Level(runnerUp.EaseOfUse)
	if re > we {
		losses = append(losses, fmt.Sprintf("ease of use (%s vs %s)", winner.EaseOfUse, runnerUp.EaseOfUse))
	}

	if len(losses) == 0 {
		return "nothing"
	}
	return strings.Join(losses, " and ")
}
