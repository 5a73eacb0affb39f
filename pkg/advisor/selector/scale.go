package selector

import (
	"strconv"
	"strings"

	"regen-advisor-be/pkg/utils"
)

// Level maps a free-text attribute rating to an ordinal 1..5. Recognized
// wordings come first, then dollar-sign counts ("$$$"), then bare numbers
// clamped into range. Returns false when the rating is unusable.
func Level(raw string) (int, bool) {
	s := utils.NormalizeName(raw)
	if s == "" {
		return 0, false
	}

	switch {
	case strings.Contains(s, "very high"):
		return 5, true
	case strings.Contains(s, "very low"):
		return 1, true
	case strings.Contains(s, "high"):
		return 4, true
	case strings.Contains(s, "low"):
		return 2, true
	case strings.Contains(s, "medium"), strings.Contains(s, "moderate"), strings.Contains(s, "average"):
		return 3, true
	}

	if n := strings.Count(s, "$"); n > 0 && strings.Trim(s, "$ ") == "" {
		return clamp(n), true
	}

	if f, err := strconv.ParseFloat(strings.TrimSuffix(s, "/5"), 64); err == nil {
		return clamp(int(f + 0.5)), true
	}

	return 0, false
}

// Rankable reports whether all three attribute ratings parse.
func Rankable(accuracy, cost, ease string) bool {
	_, okA := Level(accuracy)
	_, okC := Level(cost)
	_, okE := Level(ease)
	return okA && okC && okE
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}
