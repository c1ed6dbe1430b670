// Package ai categorizes scraped link text through an ordered fallback
// chain: Gemini model variants, then Groq, then a keyword heuristic that
// cannot fail. The result always lands in the closed category set.
package ai

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"linkvault/internal/domain"
)

// Result is the categorization outcome: a category from the closed enum,
// a one-sentence summary, and comma-joined lowercase search tags.
type Result struct {
	Category domain.Category
	Summary  string
	Tags     string
}

// DefaultSummary replaces missing or unusably short summaries.
const DefaultSummary = "Saved link."

// Provider is one stage of the categorization chain. A nil error means the
// result is usable; any error makes the chain move to the next stage.
type Provider interface {
	Name() string
	Categorize(ctx context.Context, text string) (Result, error)
}

// Categorizer iterates providers in order until one succeeds and finishes
// with the keyword heuristic, which always produces a result. Modeling the
// chain as a list keeps each stage independently testable and makes the
// fall-through order explicit.
type Categorizer struct {
	providers []Provider
	log       logrus.FieldLogger
}

// NewCategorizer builds the chain. Providers may be empty, in which case
// every input goes straight to the keyword heuristic.
func NewCategorizer(providers []Provider, logger logrus.FieldLogger) *Categorizer {
	return &Categorizer{
		providers: providers,
		log:       logger.WithField("component", "categorizer"),
	}
}

// Categorize never returns an error: provider failures are logged and the
// chain advances until the guaranteed keyword stage.
func (c *Categorizer) Categorize(ctx context.Context, text string) Result {
	clean := strings.TrimSpace(text)
	if len(clean) < 5 {
		return Result{Category: domain.CategoryOther, Summary: DefaultSummary}
	}

	for _, p := range c.providers {
		res, err := p.Categorize(ctx, clean)
		if err != nil {
			c.log.WithError(err).WithField("provider", p.Name()).Warn("Provider failed, falling through")
			continue
		}
		c.log.WithFields(logrus.Fields{
			"provider": p.Name(),
			"category": res.Category,
		}).Info("Categorized")
		return res
	}

	res := keywordCategorize(clean)
	c.log.WithField("category", res.Category).Info("Categorized by keyword fallback")
	return res
}
