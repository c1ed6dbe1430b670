package domain

import "time"

// SavedLink represents one successfully resolved link stored for a user.
// Rows are immutable after insert: there is no update path, only an
// owner-scoped delete.
type SavedLink struct {
	ID int64 `json:"id"`

	// UserID is the owner. (UserID, URL) is unique per owner.
	UserID int64 `json:"user_id"`

	// URL is the canonical (normalized) URL used for duplicate detection.
	URL string `json:"url"`

	// Platform tag detected from the URL host, e.g. "instagram".
	Platform Platform `json:"platform"`

	// ExtractedText is the raw scraped text, empty when the link was
	// resolved through the MCQ flow.
	ExtractedText string `json:"extracted_text,omitempty"`

	// Summary is the AI- or user-provided one-sentence description.
	Summary string `json:"summary"`

	Category Category `json:"category"`

	// ThumbnailURL is an optional preview image (og:image or oEmbed).
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// Tags is a comma-joined list of lowercase keywords, capped at 200 chars.
	Tags string `json:"tags"`

	SavedAt time.Time `json:"saved_at"`
}

// User is a registered account. The phone number is the identity shared
// between the dashboard and the chat transports.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	ChatID       string    `json:"-"` // Telegram chat link, empty until linked
	CreatedAt    time.Time `json:"created_at"`
}

// PendingLink is the per-sender state held while an MCQ answer is awaited.
// It is ephemeral by contract: a process restart drops all pending links.
type PendingLink struct {
	URL          string   `json:"url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Platform     Platform `json:"platform"`

	// Options maps ordinal position (index+1) to a category label. The
	// order is fixed when the pending link is created and preserved across
	// the retry re-prompt.
	Options []Category `json:"options"`

	// Retries counts invalid replies. One retry is allowed; the second
	// invalid reply discards the pending link.
	Retries int `json:"retries"`
}
