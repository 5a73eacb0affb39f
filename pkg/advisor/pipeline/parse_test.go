package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regen-advisor-be/pkg/utils"
)

func TestDecodeMethodArray(t *testing.T) {
	raw := "```json\n" + `[
		{"name": "Camera trap survey", "accuracy": "high", "cost": "high", "ease_of_use": "medium"},
		{"Name": "Soil probe", "Accuracy": "medium", "cost_level": "low", "usability": "high"},
		{"method": "Drone survey", "accuracy": 4, "cost": "$$$", "ease": "medium"}
	]` + "\n```"

	methods, err := DecodeMethodArray(raw)
	require.NoError(t, err)
	require.Len(t, methods, 3)

	assert.Equal(t, MethodPayload{Name: "Camera trap survey", Accuracy: "high", Cost: "high", EaseOfUse: "medium"}, methods[0])
	assert.Equal(t, MethodPayload{Name: "Soil probe", Accuracy: "medium", Cost: "low", EaseOfUse: "high"}, methods[1])
	assert.Equal(t, MethodPayload{Name: "Drone survey", Accuracy: "4", Cost: "$$$", EaseOfUse: "medium"}, methods[2])
}

func TestDecodeMethodArrayDropsNamelessElements(t *testing.T) {
	raw := `[{"accuracy": "high"}, {"name": "Pan traps"}]`

	methods, err := DecodeMethodArray(raw)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "Pan traps", methods[0].Name)
	assert.Empty(t, methods[0].Accuracy, "missing attributes stay empty, not invented")
}

func TestDecodeMethodArrayNoArray(t *testing.T) {
	_, err := DecodeMethodArray("the model rambled with no JSON at all")
	assert.ErrorIs(t, err, utils.ErrNoArray)
}
