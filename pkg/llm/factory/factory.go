package factory

import (
	"fmt"

	"regen-advisor-be/pkg/llm"
	"regen-advisor-be/pkg/llm/huggingface"
	"regen-advisor-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, ollamaBaseURL, huggingFaceKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(huggingFaceKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
