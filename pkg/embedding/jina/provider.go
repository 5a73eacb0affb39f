package jina

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"regen-advisor-be/pkg/embedding"
)

// JinaProvider embeds text with the Jina AI embeddings API.
type JinaProvider struct {
	ApiKey string
	Model  string
}

func NewJinaProvider(apiKey string) embedding.EmbeddingProvider {
	return &JinaProvider{
		ApiKey: apiKey,
		Model:  "jina-embeddings-v3",
	}
}

type jinaRequest struct {
	Model string   `json:"model"`
	Task  string   `json:"task,omitempty"`
	Input []string `json:"input"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *JinaProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	task := "retrieval.passage"
	if taskType == "RETRIEVAL_QUERY" {
		task = "retrieval.query"
	}

	reqBody := jinaRequest{
		Model: p.Model,
		Task:  task,
		Input: []string{text},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", "https://api.jina.ai/v1/embeddings", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.ApiKey)

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from jina response, code %d, body %s", res.StatusCode, string(resBytes))
	}

	var parsed jinaResponse
	if err := json.Unmarshal(resBytes, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("jina returned no embeddings")
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: parsed.Data[0].Embedding},
	}, nil
}
