package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate applies the schema required by this driver.
	Migrate(ctx context.Context) error

	// ConversationContext model related methods.
	UpsertConversationContext(ctx context.Context, upsert *ConversationContext) (*ConversationContext, error)
	GetConversationContext(ctx context.Context, find *FindConversationContext) (*ConversationContext, error)
	ListConversationContexts(ctx context.Context, find *FindConversationContext) ([]*ConversationContext, error)
	DeleteConversationContext(ctx context.Context, delete *DeleteConversationContext) error

	// DeleteExpiredConversationContexts removes non-threaded rows whose
	// expiry has passed and returns the number of rows removed.
	DeleteExpiredConversationContexts(ctx context.Context, before int64) (int64, error)
}
