package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/domain"
)

func geminiReply(text string) string {
	resp := geminiResponse{}
	resp.Candidates = []struct {
		Content geminiContent `json:"content"`
	}{
		{Content: geminiContent{Parts: []geminiPart{{Text: text}}}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGeminiProvider_FallsToNextModelOnRateLimit(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path looks like /models/<model>:generateContent
		model := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/models/"), ":generateContent")
		calls = append(calls, model)

		if model == "gemini-2.0-flash" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, geminiReply(`{"category": "Coding", "summary": "A git tutorial for beginners.", "tags": ["git", "tutorial"]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("test-key", testLogger())
	p.baseURL = srv.URL

	res, err := p.Categorize(context.Background(), "Learn git branching step by step")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCoding, res.Category)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-flash"}, calls)
}

func TestGeminiProvider_QuotaBodyTreatedAsRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"message": "Quota exceeded for this project"}}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider("test-key", testLogger())
	p.baseURL = srv.URL

	_, err := p.Categorize(context.Background(), "Some scraped caption text")
	require.Error(t, err)
	assert.Equal(t, len(geminiModels), calls, "every model variant should be tried on quota errors")
}

func TestGeminiProvider_NonTransientErrorAbandons(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "invalid request"}}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider("test-key", testLogger())
	p.baseURL = srv.URL

	_, err := p.Categorize(context.Background(), "Some scraped caption text")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-transient errors must not burn the remaining variants")
}

func TestGeminiProvider_EmptyKeyFailsFast(t *testing.T) {
	p := NewGeminiProvider("", testLogger())
	_, err := p.Categorize(context.Background(), "anything at all")
	assert.Error(t, err)
}

func TestGroqProvider_Categorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req groqRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, groqModel, req.Model)
		assert.InDelta(t, 0.3, req.Temperature, 0.001)
		assert.Equal(t, 150, req.MaxTokens)

		resp := groqResponse{}
		resp.Choices = []struct {
			Message groqMessage `json:"message"`
		}{
			{Message: groqMessage{Role: "assistant", Content: `{"category": "Food", "summary": "A pasta recipe.", "tags": ["pasta", "recipe"]}`}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewGroqProvider("test-key", testLogger())
	p.endpoint = srv.URL

	res, err := p.Categorize(context.Background(), "Creamy garlic pasta in 15 minutes")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFood, res.Category)
	assert.Equal(t, "pasta, recipe", res.Tags)
}

func TestGroqProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewGroqProvider("test-key", testLogger())
	p.endpoint = srv.URL

	_, err := p.Categorize(context.Background(), "anything at all")
	assert.Error(t, err)
}
