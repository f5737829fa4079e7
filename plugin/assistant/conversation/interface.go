// Package conversation provides the durable per-conversation state service:
// history, active capability, recently mentioned entities, and expiration
// bookkeeping. All invariant enforcement (history caps, entity dedup and
// eviction) happens here on the in-memory value before it is serialized;
// the row store below only ever sees an opaque payload.
package conversation

import (
	"context"

	"github.com/switchboardhq/switchboard/store"
)

// Role of a recorded turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message (user or assistant) recorded in a context's history.
// Capability is set on assistant turns to record which capability produced
// the response.
type Turn struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	Capability string `json:"capability,omitempty"`
	CreatedTs  int64  `json:"created_ts"`
}

// EntityKind classifies a tracked entity reference.
type EntityKind string

const (
	EntityKindContact EntityKind = "contact"
	EntityKindDeal    EntityKind = "deal"
	EntityKindCompany EntityKind = "company"
)

// EntityKinds lists every recognized kind.
var EntityKinds = []EntityKind{EntityKindContact, EntityKindDeal, EntityKindCompany}

// KnownEntityKind reports whether k is a recognized kind.
func KnownEntityKind(k EntityKind) bool {
	switch k {
	case EntityKindContact, EntityKindDeal, EntityKindCompany:
		return true
	default:
		return false
	}
}

// EntityRef is a recently mentioned domain object tracked for pronoun
// resolution.
type EntityRef struct {
	Kind        EntityKind `json:"kind"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	MentionedTs int64      `json:"mentioned_ts"`
}

// Context is the working state for one ongoing conversation, one per
// (channel, thread-or-absence) pair. ThreadID is empty for direct,
// non-threaded conversations; only those are eligible for expiry-based
// removal by the sweep.
type Context struct {
	ID               string
	ChannelID        string
	ThreadID         string
	UserID           string
	ActiveCapability string
	Turns            []Turn
	Entities         map[EntityKind][]EntityRef
	CreatedTs        int64
	UpdatedTs        int64
	ExpiresTs        int64
}

// IsThreaded reports whether the context belongs to a threaded conversation.
func (c *Context) IsThreaded() bool {
	return c.ThreadID != ""
}

// RecentTurns returns up to the last n turns in original order.
func (c *Context) RecentTurns(n int) []Turn {
	turns := c.Turns
	if n > 0 && n < len(turns) {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// RecentEntities returns up to the last n entities of the given kind, most
// recently appended last.
func (c *Context) RecentEntities(kind EntityKind, n int) []EntityRef {
	list := c.Entities[kind]
	if n > 0 && n < len(list) {
		list = list[len(list)-n:]
	}
	out := make([]EntityRef, len(list))
	copy(out, list)
	return out
}

// MostRecentEntity returns the most recently mentioned entity of the given
// kind, or nil when none has been mentioned.
func (c *Context) MostRecentEntity(kind EntityKind) *EntityRef {
	if c == nil {
		return nil
	}
	list := c.Entities[kind]
	if len(list) == 0 {
		return nil
	}
	ref := list[len(list)-1]
	return &ref
}

// Service is the conversation context store contract.
//
// Lookups for a context that does not exist return nil, never an error.
// Mutations referencing a context that no longer exists are no-ops; the
// caller is expected to re-fetch.
type Service interface {
	// GetOrCreate returns the unique context for (channel, thread) if
	// present and, for non-threaded rows, unexpired; otherwise it creates
	// a new one with a fresh expiry. Threaded lookups ignore expiry.
	GetOrCreate(ctx context.Context, channelID, threadID, userID string) (*Context, error)

	// Get returns the context for (channel, thread), or nil when absent.
	// Read-only introspection; never creates.
	Get(ctx context.Context, channelID, threadID string) (*Context, error)

	// AddTurn appends a turn, trimming the oldest turns once the history
	// cap is exceeded, and persists the full context.
	AddTurn(ctx context.Context, contextID string, turn Turn) error

	// SetActiveCapability records which capability currently owns the
	// conversation. An empty capability clears it.
	SetActiveCapability(ctx context.Context, contextID, capability string) error

	// AddEntity records a mentioned entity. Re-adding an entity with an
	// existing identifier updates it in place; otherwise it is appended
	// and the oldest entity of that kind is evicted once over the cap.
	AddEntity(ctx context.Context, contextID string, entity EntityRef) error

	// GetRecentEntity returns the most recently appended entity of the
	// given kind (by list position, not timestamp), or nil.
	GetRecentEntity(ctx context.Context, contextID string, kind EntityKind) (*EntityRef, error)

	// TouchActivity refreshes last-activity, and for non-threaded contexts
	// also pushes the expiry out. Threaded contexts have no meaningful
	// expiry to refresh.
	TouchActivity(ctx context.Context, contextID string, isThreaded bool) error

	// CleanupExpired deletes non-threaded contexts whose expiry has
	// passed and returns the number removed.
	CleanupExpired(ctx context.Context) (int64, error)
}

// RowStore is the persistence surface the service relies on. *store.Store
// satisfies it; tests inject the in-memory mock instead.
type RowStore interface {
	UpsertConversationContext(ctx context.Context, upsert *store.ConversationContext) (*store.ConversationContext, error)
	GetConversationContext(ctx context.Context, find *store.FindConversationContext) (*store.ConversationContext, error)
	DeleteConversationContext(ctx context.Context, delete *store.DeleteConversationContext) error
	DeleteExpiredConversationContexts(ctx context.Context, before int64) (int64, error)
}
