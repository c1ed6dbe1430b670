package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	groqModel    = "llama-3.1-8b-instant"
)

// GroqProvider is the secondary AI stage: an OpenAI-compatible chat
// completion against Groq's hosted Llama. Only attempted when the primary
// provider yielded nothing; every failure here is non-fatal.
type GroqProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
	log      logrus.FieldLogger
}

func NewGroqProvider(apiKey string, logger logrus.FieldLogger) *GroqProvider {
	return &GroqProvider{
		apiKey:   apiKey,
		endpoint: groqEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      logger.WithField("component", "groq"),
	}
}

func (p *GroqProvider) Name() string { return "groq" }

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

func (p *GroqProvider) Categorize(ctx context.Context, text string) (Result, error) {
	if p.apiKey == "" {
		return Result{}, fmt.Errorf("groq api key not configured")
	}

	reqBody := groqRequest{
		Model: groqModel,
		Messages: []groqMessage{
			{Role: "user", Content: buildPrompt(text)},
		},
		Temperature: 0.3,
		MaxTokens:   150,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("groq returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed groqResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("no completion returned")
	}

	return parseResponse(parsed.Choices[0].Message.Content)
}
