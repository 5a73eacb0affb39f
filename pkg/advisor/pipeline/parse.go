package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"regen-advisor-be/pkg/utils"
)

// MethodPayload is one method element of a stage-3 model response.
type MethodPayload struct {
	Name      string
	Accuracy  string
	Cost      string
	EaseOfUse string
}

// DecodeMethodArray parses a JSON array of method objects out of raw model
// output. Key matching is case-insensitive with a few aliases, since models
// drift between "ease_of_use", "ease of use" and "usability". Elements
// without a name are dropped; missing attributes stay empty so the method can
// still be listed unranked.
func DecodeMethodArray(raw string) ([]MethodPayload, error) {
	slice, err := utils.ArraySlice(raw)
	if err != nil {
		return nil, err
	}

	var elems []map[string]any
	if err := json.Unmarshal([]byte(slice), &elems); err != nil {
		return nil, err
	}

	out := make([]MethodPayload, 0, len(elems))
	for _, e := range elems {
		name := pick(e, "name", "method", "method_name")
		if name == "" {
			continue
		}
		out = append(out, MethodPayload{
			Name:      name,
			Accuracy:  pick(e, "accuracy"),
			Cost:      pick(e, "cost", "cost_level"),
			EaseOfUse: pick(e, "ease_of_use", "ease of use", "ease", "usability"),
		})
	}

	return out, nil
}

func pick(m map[string]any, keys ...string) string {
	for _, key := range keys {
		for k, v := range m {
			if !strings.EqualFold(strings.TrimSpace(k), key) {
				continue
			}
			switch t := v.(type) {
			case string:
				return strings.TrimSpace(t)
			case float64:
				return fmt.Sprintf("%v", t)
			}
		}
	}
	return ""
}
