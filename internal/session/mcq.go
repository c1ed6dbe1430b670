// Package session holds the per-sender conversation state for the MCQ
// category fallback: a pending link awaiting a numbered reply, stored in a
// small key-value store keyed by sender identity.
package session

import (
	"fmt"
	"strings"

	"linkvault/internal/domain"
)

// platformHints lists the 6 most likely categories per platform, most
// likely first. The ordinal shown to the user is the index+1.
var platformHints = map[domain.Platform][]domain.Category{
	domain.PlatformInstagram: {domain.CategoryFitness, domain.CategoryFood, domain.CategoryTravel, domain.CategoryDesign, domain.CategoryGaming, domain.CategoryOther},
	domain.PlatformYouTube:   {domain.CategoryGaming, domain.CategoryTech, domain.CategoryCoding, domain.CategoryFitness, domain.CategoryBusiness, domain.CategoryOther},
	domain.PlatformTwitter:   {domain.CategoryTech, domain.CategoryBusiness, domain.CategoryCoding, domain.CategoryGaming, domain.CategoryDesign, domain.CategoryOther},
	domain.PlatformBlog:      {domain.CategoryCoding, domain.CategoryTech, domain.CategoryBusiness, domain.CategoryTravel, domain.CategoryDesign, domain.CategoryOther},
}

var defaultHints = []domain.Category{
	domain.CategoryGaming, domain.CategoryFitness, domain.CategoryFood,
	domain.CategoryTech, domain.CategoryCoding, domain.CategoryOther,
}

// BuildOptions returns the ordered option set offered for a platform.
func BuildOptions(platform domain.Platform) []domain.Category {
	hints, ok := platformHints[platform]
	if !ok {
		hints = defaultHints
	}
	out := make([]domain.Category, len(hints))
	copy(out, hints)
	return out
}

// Prompt renders the numbered MCQ message for an option set.
func Prompt(options []domain.Category) string {
	var b strings.Builder
	b.WriteString("Couldn't read this post automatically. What's it about?")
	for i, cat := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, cat)
	}
	fmt.Fprintf(&b, "\n\nReply with a number (1–%d).", len(options))
	return b.String()
}

// MatchOption maps a reply to the chosen category. The reply must be
// exactly the ordinal, e.g. "3".
func MatchOption(pending *domain.PendingLink, reply string) (domain.Category, bool) {
	trimmed := strings.TrimSpace(reply)
	for i, cat := range pending.Options {
		if trimmed == fmt.Sprintf("%d", i+1) {
			return cat, true
		}
	}
	return "", false
}
