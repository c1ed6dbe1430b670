package ai

import (
	"strings"
	"unicode/utf8"

	"linkvault/internal/domain"
)

// categoryKeywords backs the last-resort heuristic. Scoring counts how many
// of a category's keywords occur in the lowercased text; highest count wins
// with ties broken by enumeration order in domain.Categories.
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryFitness: {"gym", "workout", "exercise", "fitness", "muscle", "weight", "yoga", "run",
		"training", "health", "diet", "calories", "strength", "cardio", "stretching"},
	domain.CategoryCoding: {"code", "coding", "programming", "developer", "python", "javascript", "html",
		"css", "git", "sql", "api", "backend", "frontend", "algorithm", "debugging",
		"tutorial", "project", "github", "deployment", "resume"},
	domain.CategoryTech: {"phone", "laptop", "computer", "software", "app", "tech", "ai", "robot",
		"gadget", "device", "smartphone", "specs", "review", "unboxing", "hardware",
		"processor", "camera", "battery", "science", "innovation"},
	domain.CategoryFood: {"food", "recipe", "cook", "restaurant", "eat", "meal", "kitchen", "dish",
		"chef", "bake", "taste", "cuisine", "flavor", "craving", "delicious"},
	domain.CategoryTravel: {"travel", "trip", "flight", "hotel", "destination", "tour", "vacation",
		"explore", "adventure", "beach", "city", "country", "passport", "itinerary"},
	domain.CategoryDesign: {"design", "ui", "ux", "figma", "color", "typography", "brand", "logo",
		"creative", "art", "illustration", "aesthetic", "inspiration", "portfolio",
		"visual", "animation", "graphic"},
	domain.CategoryBusiness: {"money", "invest", "stock", "finance", "bank", "crypto", "trading", "budget",
		"income", "wealth", "market", "business", "startup", "productivity",
		"entrepreneur", "marketing", "sales", "career", "hustle", "growth"},
	domain.CategoryGaming: {"game", "gaming", "gamer", "esports", "xbox", "playstation", "ps5", "ps4",
		"nintendo", "pc gaming", "steam", "fortnite", "minecraft", "fps", "rpg",
		"twitch", "console", "controller", "gameplay", "level"},
}

const summaryTruncateLen = 80

// keywordCategorize is the guaranteed-success final stage.
func keywordCategorize(text string) Result {
	lower := strings.ToLower(text)

	best := domain.CategoryOther
	bestScore := 0
	for _, cat := range domain.Categories {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = cat
		}
	}

	summary := strings.TrimSpace(strings.SplitN(text, ".", 2)[0])
	if utf8.RuneCountInString(summary) > summaryTruncateLen {
		summary = string([]rune(summary)[:summaryTruncateLen-3]) + "..."
	}
	if summary == "" {
		summary = DefaultSummary
	}

	return Result{
		Category: best,
		Summary:  summary,
		Tags:     strings.ToLower(string(best)),
	}
}
