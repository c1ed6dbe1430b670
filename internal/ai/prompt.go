package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"linkvault/internal/domain"
)

const promptTemplate = `You are a content analyzer. Given the following text extracted from a social media post or article, return a JSON object with exactly three keys:
- "category": one of these values ONLY: Fitness, Coding, Tech, Food, Travel, Design, Business, Gaming, Other
- "summary": a one-sentence summary, maximum 25 words
- "tags": a JSON array of 3 to 5 lowercase keyword strings that best describe the content (e.g. ["yoga", "morning routine", "flexibility", "beginners"]). These are used for search — pick specific, meaningful words a user would search for.

Category guidance:
- Coding: programming tutorials, coding projects, developer tools, coding challenges
- Tech: smartphones, gadgets, hardware reviews, AI news, software news, science/technology
- Fitness: gym, workout, yoga, running, diet, health
- Food: recipes, restaurants, cooking, food reviews
- Travel: trips, destinations, hotels, itineraries
- Design: UI/UX, graphic design, art, aesthetics, brand/logo, animation
- Business: entrepreneurship, startups, marketing, finance, investing, productivity, career
- Gaming: video games, esports, gaming hardware, game reviews, game trailers
- Other: anything that does not fit above

Text to analyze:
%s

Return ONLY the JSON object, no markdown, no code fences, no explanation.`

// buildPrompt fills the fixed instruction template with the text to analyze.
func buildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// maxTagsLen caps the comma-joined tags string stored per link.
const maxTagsLen = 200

type rawResult struct {
	Category string          `json:"category"`
	Summary  string          `json:"summary"`
	Tags     json.RawMessage `json:"tags"`
}

// parseResponse repairs and decodes a model reply into a Result. Models
// sometimes wrap the JSON in a markdown code fence despite instructions;
// out-of-enum categories, short summaries, and malformed tags are coerced
// to safe defaults rather than failing the stage.
func parseResponse(reply string) (Result, error) {
	text := strings.TrimSpace(reply)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) >= 2 {
			text = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Result{}, fmt.Errorf("failed to decode model reply: %w", err)
	}

	res := Result{
		Category: domain.ParseCategory(raw.Category),
		Summary:  strings.TrimSpace(raw.Summary),
	}
	if len(res.Summary) < 3 {
		res.Summary = DefaultSummary
	}

	var tags []any
	if len(raw.Tags) > 0 && json.Unmarshal(raw.Tags, &tags) == nil {
		parts := make([]string, 0, len(tags))
		for _, t := range tags {
			s := strings.ToLower(strings.TrimSpace(fmt.Sprint(t)))
			if s != "" && s != "<nil>" {
				parts = append(parts, s)
			}
		}
		joined := strings.Join(parts, ", ")
		if utf8.RuneCountInString(joined) > maxTagsLen {
			joined = string([]rune(joined)[:maxTagsLen])
		}
		res.Tags = joined
	}

	return res, nil
}
