package store

// Gap reasons surfaced to the user. Every empty stage result is stated
// explicitly rather than silently omitted.
const (
	GapNoResults   = "no results"
	GapUnavailable = "unavailable - retry"
)

// Plan is the staged result tree for one document session:
// outcomes, their indicators, the candidate methods per indicator and the
// recommendation once the user's priorities are known.
type Plan struct {
	Outcomes []Outcome `json:"outcomes"`
	Gaps     []Gap     `json:"gaps,omitempty"`
}

// Outcome is a measurable project goal extracted from the uploaded document.
type Outcome struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Indicators  []Indicator `json:"indicators,omitempty"`
}

// Indicator is a measurable proxy for an outcome. Identity is the normalized
// name; OutcomeID is a back-reference only, not ownership.
type Indicator struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	OutcomeID      string          `json:"outcome_id"`
	Methods        []Method        `json:"methods,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Method is a concrete data-collection technique for an indicator. The three
// attributes are retrieved free text; a method missing any of them stays in
// the plan but is excluded from ranking (Ranked=false).
type Method struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Accuracy    string `json:"accuracy"`
	Cost        string `json:"cost"`
	EaseOfUse   string `json:"ease_of_use"`
	IndicatorID string `json:"indicator_id"`
	Ranked      bool   `json:"ranked"`
}

// Recommendation is the selected method for an indicator plus the rationale
// naming the trade-off against the runner-up. Immutable once emitted; a
// revisit supersedes it with a new one.
type Recommendation struct {
	MethodID       string `json:"method_id"`
	MethodName     string `json:"method_name"`
	Rationale      string `json:"rationale"`
	PrioritiesUsed string `json:"priorities_used"`
	Superseded     bool   `json:"superseded"`
}

// Gap records a stage that produced nothing for an entity, with the entity
// name and why (GapNoResults or GapUnavailable).
type Gap struct {
	Stage  string `json:"stage"`
	Entity string `json:"entity"`
	Reason string `json:"reason"`
}
