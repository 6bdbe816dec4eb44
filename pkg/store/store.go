// Package store persists conversations and their messages. Deployments
// without a database run on the in-memory implementation; everything the
// server needs is behind ConversationStore.
package store

import (
	"context"
	"errors"

	"paintcode/pkg/domain"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// ConversationStore persists conversation state across requests.
type ConversationStore interface {
	// Create inserts a new conversation record.
	Create(ctx context.Context, conv domain.Conversation) error
	// Get fetches a conversation by ID.
	Get(ctx context.Context, id string) (domain.Conversation, error)
	// Update overwrites stage, facts, preview, and the updated timestamp.
	Update(ctx context.Context, conv domain.Conversation) error
	// List returns conversations ordered most recently updated first.
	List(ctx context.Context, limit int) ([]domain.Conversation, error)
	// Delete removes a conversation and its messages.
	Delete(ctx context.Context, id string) error

	// AppendMessage adds a message to a conversation's transcript.
	AppendMessage(ctx context.Context, msg domain.Message) error
	// Messages returns a conversation's transcript in creation order.
	Messages(ctx context.Context, conversationID string) ([]domain.Message, error)
}
