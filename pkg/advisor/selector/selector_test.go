package selector

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regen-advisor-be/pkg/advisor/conversation"
	"regen-advisor-be/pkg/store"
)

func testSelector() *Selector {
	return New(log.New(io.Discard, "", 0))
}

func TestLevel(t *testing.T) {
	cases := []struct {
		raw   string
		level int
		ok    bool
	}{
		{"Very High", 5, true},
		{"high", 4, true},
		{"Medium", 3, true},
		{"moderate", 3, true},
		{"Low", 2, true},
		{"very low", 1, true},
		{"$$$", 3, true},
		{"$$$$$$", 5, true},
		{"4", 4, true},
		{"4/5", 4, true},
		{"9", 5, true},
		{"0", 1, true},
		{"", 0, false},
		{"unknown", 0, false},
	}
	for _, c := range cases {
		level, ok := Level(c.raw)
		assert.Equal(t, c.ok, ok, "Level(%q) ok", c.raw)
		assert.Equal(t, c.level, level, "Level(%q)", c.raw)
	}
}

func TestParsePriorities(t *testing.T) {
	t.Run("single attribute", func(t *testing.T) {
		p, ok := ParsePriorities("I prioritize low cost")
		require.True(t, ok)
		assert.Equal(t, priorityWeight, p.Cost)
		assert.Equal(t, baseWeight, p.Accuracy)
		assert.Equal(t, baseWeight, p.Ease)
		assert.Equal(t, "I prioritize low cost", p.Statement)
	})

	t.Run("trade-off keeps traded attribute at base weight", func(t *testing.T) {
		p, ok := ParsePriorities("accuracy over cost")
		require.True(t, ok)
		assert.Equal(t, priorityWeight, p.Accuracy)
		assert.Equal(t, baseWeight, p.Cost)
	})

	t.Run("no attribute named", func(t *testing.T) {
		_, ok := ParsePriorities("tell me more about soil sampling")
		assert.False(t, ok)
	})

	t.Run("multiple attributes", func(t *testing.T) {
		p, ok := ParsePriorities("something cheap and easy please")
		require.True(t, ok)
		assert.Equal(t, priorityWeight, p.Cost)
		assert.Equal(t, priorityWeight, p.Ease)
		assert.Equal(t, []string{"cost", "ease of use"}, p.Prioritized())
	})
}

func TestLatestPrioritiesPicksNewestUserStatement(t *testing.T) {
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "I care about accuracy"},
		{Role: conversation.RoleAssistant, Content: "Noted. Anything else?"},
		{Role: conversation.RoleUser, Content: "actually, I prioritize low cost"},
	}

	p, ok := LatestPriorities(history)
	require.True(t, ok)
	assert.Equal(t, priorityWeight, p.Cost)
	assert.Equal(t, baseWeight, p.Accuracy)
}

func birdIndicator() store.Indicator {
	return store.Indicator{
		ID:   "ind-1",
		Name: "Bird species richness",
		Methods: []store.Method{
			{ID: "m-1", Name: "Camera trap survey", Accuracy: "high", Cost: "high", EaseOfUse: "medium", Ranked: true},
			{ID: "m-2", Name: "Visual transect count", Accuracy: "medium", Cost: "low", EaseOfUse: "high", Ranked: true},
		},
	}
}

func TestElicitAsksClarifyingQuestionOnce(t *testing.T) {
	s := testSelector()
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "what methods are there?"},
	}

	first := s.ElicitAndRecommend(birdIndicator(), history, false)
	require.True(t, first.Awaiting)
	assert.Contains(t, first.Question, "Bird species richness")
	assert.Contains(t, first.Question, "accuracy, cost, or ease of use")

	repeat := s.ElicitAndRecommend(birdIndicator(), history, true)
	require.True(t, repeat.Awaiting)
	assert.Empty(t, repeat.Question, "question must not be repeated for the same indicator")
}

func TestRecommendLowCostPriority(t *testing.T) {
	s := testSelector()
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "I prioritize low cost"},
	}

	res := s.ElicitAndRecommend(birdIndicator(), history, true)
	require.NotNil(t, res.Recommendation)
	assert.False(t, res.Awaiting)
	assert.Equal(t, "Visual transect count", res.Recommendation.MethodName)
	assert.Equal(t, "I prioritize low cost", res.Recommendation.PrioritiesUsed)

	require.NotNil(t, res.RunnerUp)
	assert.Equal(t, "Camera trap survey", res.RunnerUp.Name)
	assert.Contains(t, res.Recommendation.Rationale, "Camera trap survey")
	assert.Contains(t, res.Recommendation.Rationale, "accuracy")
}

func TestRecommendAccuracyPriorityFlipsWinner(t *testing.T) {
	ind := store.Indicator{
		Name: "Bird species richness",
		Methods: []store.Method{
			{ID: "m-1", Name: "Camera trap survey", Accuracy: "high", Cost: "high", EaseOfUse: "medium", Ranked: true},
			{ID: "m-2", Name: "Casual walkover", Accuracy: "low", Cost: "low", EaseOfUse: "high", Ranked: true},
		},
	}
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "accuracy over cost"},
	}

	res := testSelector().ElicitAndRecommend(ind, history, true)
	require.NotNil(t, res.Recommendation)
	assert.Equal(t, "Camera trap survey", res.Recommendation.MethodName)
	assert.Contains(t, res.Recommendation.Rationale, "cost")
}

func TestRecommendIsDeterministicOnTies(t *testing.T) {
	ind := store.Indicator{
		Name: "Soil organic carbon",
		Methods: []store.Method{
			{ID: "m-b", Name: "Beta probe", Accuracy: "medium", Cost: "medium", EaseOfUse: "medium", Ranked: true},
			{ID: "m-a", Name: "Alpha probe", Accuracy: "medium", Cost: "medium", EaseOfUse: "medium", Ranked: true},
		},
	}
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "cost matters most"},
	}

	s := testSelector()
	for i := 0; i < 5; i++ {
		res := s.ElicitAndRecommend(ind, history, true)
		require.NotNil(t, res.Recommendation)
		assert.Equal(t, "Alpha probe", res.Recommendation.MethodName, "ties break by name, run %d", i)
	}
}

func TestRecommendSkipsUnrankedMethods(t *testing.T) {
	ind := store.Indicator{
		Name: "Water turbidity",
		Methods: []store.Method{
			{ID: "m-1", Name: "Secchi disk reading", Accuracy: "medium", Cost: "low", EaseOfUse: "high", Ranked: true},
			{ID: "m-2", Name: "Lab spectrometry", Accuracy: "very high", Cost: "", EaseOfUse: "low", Ranked: false},
		},
	}
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "I want accuracy"},
	}

	res := testSelector().ElicitAndRecommend(ind, history, true)
	require.NotNil(t, res.Recommendation)
	assert.Equal(t, "Secchi disk reading", res.Recommendation.MethodName)
	assert.Nil(t, res.RunnerUp)
	assert.Contains(t, res.Recommendation.Rationale, "only fully rated method")
}

func TestRecommendNothingWhenNoMethodIsRankable(t *testing.T) {
	ind := store.Indicator{
		Name: "Pollinator abundance",
		Methods: []store.Method{
			{ID: "m-1", Name: "Pan traps", Accuracy: "unknown", Cost: "", EaseOfUse: "", Ranked: false},
		},
	}
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "cheapest option"},
	}

	res := testSelector().ElicitAndRecommend(ind, history, true)
	assert.False(t, res.Awaiting)
	assert.Nil(t, res.Recommendation)
}
