package repository

import (
	"context"

	"github.com/iliyamo/direct-message-service/internal/model"
)

// UserStore is the credential store contract. Implementations hash the
// password on Create and never expose the plaintext afterwards. The store
// is shared by all concurrent requests; implementations are safe for
// concurrent use.
type UserStore interface {
	// Create registers a user and returns its ID. Fails with
	// ErrUsernameExists when the username is already taken.
	Create(ctx context.Context, username, password string, cost int) (uint64, error)
	// GetByUsername fetches a user record, ErrNotFound when absent.
	GetByUsername(ctx context.Context, username string) (model.User, error)
	// Exists reports whether a username is present.
	Exists(ctx context.Context, username string) (bool, error)
	// Delete removes a user, ErrNotFound when absent. Messages sent to or
	// by the user are intentionally left in place.
	Delete(ctx context.Context, username string) error
}

// UserExister is the slice of UserStore that message stores need to enforce
// the recipient-must-exist invariant at append time.
type UserExister interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// MessageStore is the message store contract. IDs are unique and stable for
// the life of a message and are never reused after deletion.
type MessageStore interface {
	// Append stores a new message and returns it with the assigned ID and
	// server timestamp. Fails with ErrUnknownRecipient when the recipient
	// is absent from the credential store.
	Append(ctx context.Context, sender, recipient, text string) (model.Message, error)
	// ListForRecipient returns all messages addressed to the username in
	// insertion order. An empty result is a valid outcome, not an error.
	ListForRecipient(ctx context.Context, username string) ([]model.Message, error)
	// Get fetches a single message by ID, ErrNotFound when absent.
	Get(ctx context.Context, id string) (model.Message, error)
	// Delete permanently removes a message by ID, ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}
