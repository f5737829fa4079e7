package store

import (
	"context"

	"github.com/switchboardhq/switchboard/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) UpsertConversationContext(ctx context.Context, upsert *ConversationContext) (*ConversationContext, error) {
	return s.driver.UpsertConversationContext(ctx, upsert)
}

func (s *Store) GetConversationContext(ctx context.Context, find *FindConversationContext) (*ConversationContext, error) {
	return s.driver.GetConversationContext(ctx, find)
}

func (s *Store) ListConversationContexts(ctx context.Context, find *FindConversationContext) ([]*ConversationContext, error) {
	return s.driver.ListConversationContexts(ctx, find)
}

func (s *Store) DeleteConversationContext(ctx context.Context, delete *DeleteConversationContext) error {
	return s.driver.DeleteConversationContext(ctx, delete)
}

func (s *Store) DeleteExpiredConversationContexts(ctx context.Context, before int64) (int64, error) {
	return s.driver.DeleteExpiredConversationContexts(ctx, before)
}
