package session

import (
	"context"
	"errors"

	"linkvault/internal/domain"
)

// ErrNotPending is returned when a sender has no pending link.
var ErrNotPending = errors.New("no pending link for sender")

// PendingStore keeps at most one PendingLink per sender key. Contents are
// best-effort and ephemeral by contract: losing them (restart, TTL expiry)
// only costs the sender a resend. The interface exists so the backing store
// can be swapped for a distributed cache without touching pipeline logic.
type PendingStore interface {
	// Get returns the pending link for a sender, or ErrNotPending.
	Get(ctx context.Context, senderKey string) (*domain.PendingLink, error)

	// Put stores (or replaces) the pending link for a sender.
	Put(ctx context.Context, senderKey string, pending *domain.PendingLink) error

	// Resolve atomically removes and returns the pending link, so two
	// concurrent replies from the same sender cannot both claim it.
	Resolve(ctx context.Context, senderKey string) (*domain.PendingLink, error)

	// IncrementRetry bumps the retry counter in place, preserving the
	// original option set.
	IncrementRetry(ctx context.Context, senderKey string) error

	// Delete discards the pending link, if any.
	Delete(ctx context.Context, senderKey string) error

	Close() error
}
