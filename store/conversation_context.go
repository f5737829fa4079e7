package store

// ConversationContext is the persisted row for one ongoing conversation,
// keyed by (channel, thread). ThreadID is empty for direct, non-threaded
// conversations; only those rows are eligible for expiry-based removal.
type ConversationContext struct {
	ID               string
	ChannelID        string
	ThreadID         string
	UserID           string
	ActiveCapability string
	// Payload is the serialized history and entity lists. The store treats
	// it as an opaque blob; the conversation service owns its shape and
	// enforces all caps before it is written.
	Payload   string
	CreatedTs int64
	UpdatedTs int64
	ExpiresTs int64
}

// IsThreaded reports whether the row belongs to a threaded conversation.
func (c *ConversationContext) IsThreaded() bool {
	return c.ThreadID != ""
}

type FindConversationContext struct {
	ID        *string
	ChannelID *string
	// ThreadID matches the exact thread; an empty string matches
	// non-threaded rows. Nil matches any.
	ThreadID *string
}

type DeleteConversationContext struct {
	ID string
}
