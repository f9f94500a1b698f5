package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type GeminiProvider struct {
	ApiKey    string
	ModelName string
	Client    *http.Client
}

var _ Provider = &GeminiProvider{}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		ApiKey:    apiKey,
		ModelName: "text-embedding-004",
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type embedRequestPart struct {
	Text string `json:"text"`
}

type embedRequestContent struct {
	Parts []embedRequestPart `json:"parts"`
}

type embedRequest struct {
	Model    string              `json:"model"`
	Content  embedRequestContent `json:"content"`
	TaskType string              `json:"taskType,omitempty"`
	// Truncatable embeddings: the service returns a vector of exactly
	// this size from the same underlying representation.
	OutputDimensionality int `json:"outputDimensionality,omitempty"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (p *GeminiProvider) Generate(ctx context.Context, text, taskType string, dimensions int) (*Result, error) {
	geminiReq := embedRequest{
		Model: p.ModelName,
		Content: embedRequestContent{
			Parts: []embedRequestPart{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: dimensions,
	}

	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent",
		p.ModelName,
	)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(geminiReqJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini embedding response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var parsed embedResponse
	if err := json.Unmarshal(resByte, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	if dimensions > 0 && len(parsed.Embedding.Values) != dimensions {
		return nil, fmt.Errorf("gemini returned %d dimensions, requested %d", len(parsed.Embedding.Values), dimensions)
	}

	return &Result{Values: parsed.Embedding.Values}, nil
}
