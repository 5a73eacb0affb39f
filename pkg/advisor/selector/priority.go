package selector

import "strings"

const (
	priorityWeight = 3.0
	baseWeight     = 1.0
)

// Priorities holds the per-attribute weights derived from one user statement,
// plus the statement itself for the recommendation record.
type Priorities struct {
	Accuracy  float64 `json:"accuracy"`
	Cost      float64 `json:"cost"`
	Ease      float64 `json:"ease"`
	Statement string  `json:"statement"`
}

var (
	accuracyWords = []string{"accuracy", "accurate", "precise", "precision", "reliable", "rigorous"}
	costWords     = []string{"cost", "cheap", "budget", "affordable", "inexpensive", "expensive", "price"}
	easeWords     = []string{"ease of use", "ease-of-use", "easy", "easiest", "simple", "simplest", "effort", "usability", "straightforward"}
)

// ParsePriorities detects an explicit priority statement in one user turn.
// Attributes named before "over" (or anywhere, when no "over" appears) get
// the priority weight; attributes named after "over" are explicitly traded
// away and stay at base weight. Returns false when no attribute is named.
func ParsePriorities(text string) (*Priorities, bool) {
	lower := strings.ToLower(text)

	preferred, traded := lower, ""
	if idx := strings.Index(lower, " over "); idx >= 0 {
		preferred, traded = lower[:idx], lower[idx+len(" over "):]
	}

	p := &Priorities{
		Accuracy:  baseWeight,
		Cost:      baseWeight,
		Ease:      baseWeight,
		Statement: strings.TrimSpace(text),
	}

	found := false
	if mentions(preferred, accuracyWords) {
		p.Accuracy = priorityWeight
		found = true
	}
	if mentions(preferred, costWords) {
		p.Cost = priorityWeight
		found = true
	}
	if mentions(preferred, easeWords) {
		p.Ease = priorityWeight
		found = true
	}

	// A turn that only names traded-away attributes is still a priority
	// statement: everything else outranks them.
	if !found && traded != "" {
		if mentions(traded, accuracyWords) || mentions(traded, costWords) || mentions(traded, easeWords) {
			found = true
			if !mentions(traded, accuracyWords) {
				p.Accuracy = priorityWeight
			}
			if !mentions(traded, costWords) {
				p.Cost = priorityWeight
			}
			if !mentions(traded, easeWords) {
				p.Ease = priorityWeight
			}
		}
	}

	if !found {
		return nil, false
	}
	return p, true
}

// Prioritized lists the attribute names carrying the priority weight.
func (p *Priorities) Prioritized() []string {
	var names []string
	if p.Accuracy > baseWeight {
		names = append(names, "accuracy")
	}
	if p.Cost > baseWeight {
		names = append(names, "cost")
	}
	if p.Ease > baseWeight {
		names = append(names, "ease of use")
	}
	return names
}

func mentions(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
