package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiModels are tried in order. Rate-limit failures advance to the next
// variant after a short backoff; any other failure abandons the provider so
// the retry budget is not wasted on non-transient errors.
var geminiModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-2.0-flash-lite",
}

const geminiRateLimitBackoff = 500 * time.Millisecond

// GeminiProvider is the primary AI stage, driven over the plain
// generateContent REST endpoint.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	models  []string
	client  *http.Client
	log     logrus.FieldLogger
}

// NewGeminiProvider creates the provider. An empty apiKey is allowed; the
// provider then fails fast and the chain falls through.
func NewGeminiProvider(apiKey string, logger logrus.FieldLogger) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		models:  geminiModels,
		client:  &http.Client{Timeout: 20 * time.Second},
		log:     logger.WithField("component", "gemini"),
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Categorize walks the model variant chain.
func (p *GeminiProvider) Categorize(ctx context.Context, text string) (Result, error) {
	if p.apiKey == "" {
		return Result{}, fmt.Errorf("gemini api key not configured")
	}

	prompt := buildPrompt(text)
	var lastErr error

	for _, model := range p.models {
		log := p.log.WithField("model", model)

		reply, err := p.generate(ctx, model, prompt)
		if err == nil {
			res, perr := parseResponse(reply)
			if perr != nil {
				log.WithError(perr).Warn("Unparseable Gemini reply")
				return Result{}, perr
			}
			return res, nil
		}

		lastErr = err
		if isRateLimit(err) {
			log.WithError(err).Warn("Gemini rate limited, trying next model")
			select {
			case <-time.After(geminiRateLimitBackoff):
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
			continue
		}

		// Non-transient failure: abandon this provider immediately.
		log.WithError(err).Warn("Gemini failed")
		break
	}
	return Result{}, fmt.Errorf("all gemini models failed: %w", lastErr)
}

func (p *GeminiProvider) generate(ctx context.Context, model, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		if strings.Contains(strings.ToLower(string(body)), "quota") {
			return "", errRateLimited
		}
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini api error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	var out strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return strings.TrimSpace(out.String()), nil
}
