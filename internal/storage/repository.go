package storage

import (
	"context"
	"errors"

	"linkvault/internal/domain"
)

var (
	// ErrDuplicateLink means the owner already saved this canonical URL.
	// Duplicates are pre-checked so the unique constraint is a backstop,
	// not control flow.
	ErrDuplicateLink = errors.New("link already saved")

	// ErrUserNotFound is returned by every user lookup miss.
	ErrUserNotFound = errors.New("user not found")

	// ErrPhoneTaken means a registration reused an existing phone number.
	ErrPhoneTaken = errors.New("phone number already registered")

	// ErrLinkNotFound is returned when a delete or random pick matches
	// nothing for the owner.
	ErrLinkNotFound = errors.New("link not found")
)

// Repository is the persistence contract for users and saved links. It
// exists so the pipeline and web layers never touch SQL directly and the
// backing store can be swapped without touching them.
type Repository interface {
	CreateUser(ctx context.Context, name, phone, passwordHash string) (*domain.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByChatID(ctx context.Context, chatID string) (*domain.User, error)
	LinkChatID(ctx context.Context, userID int64, chatID string) error

	// SaveLink inserts a new record. (UserID, URL) must be unique per
	// owner; a duplicate yields ErrDuplicateLink with no row written.
	SaveLink(ctx context.Context, link *domain.SavedLink) error
	LinkExists(ctx context.Context, userID int64, canonicalURL string) (bool, error)

	// Search returns the owner's links matching every query token,
	// ranked by weighted relevance then recency. An empty query returns
	// everything newest-first. A non-empty category narrows the
	// candidate set by exact case-insensitive match.
	Search(ctx context.Context, userID int64, query, category string) ([]domain.SavedLink, error)
	RandomLink(ctx context.Context, userID int64) (*domain.SavedLink, error)
	DeleteLink(ctx context.Context, userID, linkID int64) error

	Close() error
}
