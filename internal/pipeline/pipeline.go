// Package pipeline drives one inbound chat message through the
// link-ingestion flow: pending-MCQ check first, then URL extraction,
// platform detection, scraping, the weak-text gate, and either automated
// categorization or the interactive MCQ fallback. Replies are plain text;
// transports wrap them in their own envelopes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"linkvault/internal/ai"
	"linkvault/internal/domain"
	"linkvault/internal/scraper"
	"linkvault/internal/session"
	"linkvault/internal/storage"
	"linkvault/internal/urlx"
)

// Categorizer is the automated analysis stage. It cannot fail: the keyword
// heuristic at the end of the chain always produces a result.
type Categorizer interface {
	Categorize(ctx context.Context, text string) ai.Result
}

// Option is one MCQ choice as shown to the sender.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Reply is the pipeline's answer to one inbound message.
type Reply struct {
	Text string `json:"reply"`

	// Options is non-nil only while an MCQ answer is awaited.
	Options []Option `json:"mcq_options,omitempty"`

	Saved    bool            `json:"saved"`
	Category domain.Category `json:"category,omitempty"`
	Platform domain.Platform `json:"platform,omitempty"`
}

const (
	msgNoURL       = "Please send a valid social media or article link. 🔗"
	msgDuplicate   = "You've already saved this link! 📌"
	msgUnknown     = "Couldn't identify this link. Please send an Instagram, Twitter, YouTube, or blog URL."
	msgAbandoned   = "Couldn't save this one. Please try sending the link again."
	msgInternalErr = "Something went wrong on our side. Please try again in a moment."
)

// Pipeline wires the ingestion stages together. Every dependency is an
// interface so tests can substitute fakes per stage.
type Pipeline struct {
	repo        storage.Repository
	scraper     scraper.Scraper
	categorizer Categorizer
	pending     session.PendingStore
	log         logrus.FieldLogger
}

func New(repo storage.Repository, sc scraper.Scraper, cat Categorizer, pending session.PendingStore, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		repo:        repo,
		scraper:     sc,
		categorizer: cat,
		pending:     pending,
		log:         logger.WithField("component", "pipeline"),
	}
}

// HandleMessage processes one inbound message for an authenticated user.
// senderKey identifies the conversation (one per transport surface), so a
// user's web chat and WhatsApp thread hold independent MCQ state.
func (p *Pipeline) HandleMessage(ctx context.Context, user *domain.User, senderKey, text string) Reply {
	log := p.log.WithFields(logrus.Fields{"user_id": user.ID, "sender": senderKey})

	// A pending MCQ always wins over new-link interpretation: a sender
	// can only have one conversation in flight.
	pending, err := p.pending.Get(ctx, senderKey)
	if err == nil {
		return p.handleMCQReply(ctx, user, senderKey, text, pending, log)
	}
	if !errors.Is(err, session.ErrNotPending) {
		log.WithError(err).Error("Pending store lookup failed")
		return Reply{Text: msgInternalErr}
	}

	return p.handleNewLink(ctx, user, senderKey, text, log)
}

func (p *Pipeline) handleMCQReply(ctx context.Context, user *domain.User, senderKey, text string, pending *domain.PendingLink, log logrus.FieldLogger) Reply {
	category, ok := session.MatchOption(pending, text)
	if !ok {
		if pending.Retries < 1 {
			if err := p.pending.IncrementRetry(ctx, senderKey); err != nil && !errors.Is(err, session.ErrNotPending) {
				log.WithError(err).Error("Failed to increment MCQ retry")
			}
			log.Info("Invalid MCQ reply, re-prompting")
			return Reply{
				Text: fmt.Sprintf("Please reply with a number 1–%d.\n\n%s",
					len(pending.Options), session.Prompt(pending.Options)),
				Options: optionList(pending.Options),
			}
		}

		// Second invalid reply: discard with no SavedLink. The URL was
		// never inserted, so resending it later starts fresh.
		if err := p.pending.Delete(ctx, senderKey); err != nil {
			log.WithError(err).Error("Failed to discard pending link")
		}
		log.Info("MCQ abandoned after second invalid reply")
		return Reply{Text: msgAbandoned}
	}

	// Atomic pop: a duplicate reply racing this one finds nothing.
	resolved, err := p.pending.Resolve(ctx, senderKey)
	if err != nil {
		if errors.Is(err, session.ErrNotPending) {
			return Reply{Text: msgNoURL}
		}
		log.WithError(err).Error("Failed to resolve pending link")
		return Reply{Text: msgInternalErr}
	}

	link := &domain.SavedLink{
		UserID:       user.ID,
		URL:          resolved.URL,
		Platform:     resolved.Platform,
		Summary:      fmt.Sprintf("User-categorized as %s.", category),
		Category:     category,
		ThumbnailURL: resolved.ThumbnailURL,
		Tags:         strings.ToLower(string(category)),
	}
	if err := p.repo.SaveLink(ctx, link); err != nil {
		if errors.Is(err, storage.ErrDuplicateLink) {
			return Reply{Text: msgDuplicate}
		}
		log.WithError(err).Error("Failed to save MCQ-resolved link")
		return Reply{Text: msgInternalErr}
	}

	log.WithField("category", category).Info("MCQ resolved")
	return Reply{
		Text:     fmt.Sprintf("Got it! Saved to your *%s* collection. ✅", category),
		Saved:    true,
		Category: category,
		Platform: resolved.Platform,
	}
}

func (p *Pipeline) handleNewLink(ctx context.Context, user *domain.User, senderKey, text string, log logrus.FieldLogger) Reply {
	raw := urlx.Extract(text)
	if raw == "" {
		return Reply{Text: msgNoURL}
	}

	url := urlx.Normalize(raw)

	exists, err := p.repo.LinkExists(ctx, user.ID, url)
	if err != nil {
		log.WithError(err).Error("Duplicate check failed")
		return Reply{Text: msgInternalErr}
	}
	if exists {
		return Reply{Text: msgDuplicate}
	}

	platform := urlx.DetectPlatform(url)
	if platform == domain.PlatformUnknown {
		return Reply{Text: msgUnknown}
	}

	log = log.WithFields(logrus.Fields{"url": url, "platform": platform})
	scraped := p.scraper.Scrape(ctx, url, platform)
	log.WithField("text_len", len(scraped.Text)).Info("Scraped link")

	if ai.IsWeak(scraped.Text) {
		options := session.BuildOptions(platform)
		pending := &domain.PendingLink{
			URL:          url,
			ThumbnailURL: scraped.ThumbnailURL,
			Platform:     platform,
			Options:      options,
		}
		if err := p.pending.Put(ctx, senderKey, pending); err != nil {
			log.WithError(err).Error("Failed to store pending link")
			return Reply{Text: msgInternalErr}
		}
		log.Info("Weak text, MCQ fallback triggered")
		return Reply{
			Text:     session.Prompt(options),
			Options:  optionList(options),
			Platform: platform,
		}
	}

	result := p.categorizer.Categorize(ctx, scraped.Text)

	link := &domain.SavedLink{
		UserID:        user.ID,
		URL:           url,
		Platform:      platform,
		ExtractedText: scraped.Text,
		Summary:       result.Summary,
		Category:      result.Category,
		ThumbnailURL:  scraped.ThumbnailURL,
		Tags:          result.Tags,
	}
	if err := p.repo.SaveLink(ctx, link); err != nil {
		if errors.Is(err, storage.ErrDuplicateLink) {
			return Reply{Text: msgDuplicate}
		}
		log.WithError(err).Error("Failed to save link")
		return Reply{Text: msgInternalErr}
	}

	log.WithField("category", result.Category).Info("Link saved")
	return Reply{
		Text:     fmt.Sprintf("Got it! Saved to your *%s* collection. ✅", result.Category),
		Saved:    true,
		Category: result.Category,
		Platform: platform,
	}
}

func optionList(options []domain.Category) []Option {
	out := make([]Option, len(options))
	for i, cat := range options {
		out[i] = Option{Key: fmt.Sprintf("%d", i+1), Label: string(cat)}
	}
	return out
}
