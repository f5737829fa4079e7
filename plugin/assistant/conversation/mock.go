package conversation

import (
	"context"
	"sync"

	"github.com/switchboardhq/switchboard/store"
)

// MockRowStore is an in-memory RowStore for testing.
type MockRowStore struct {
	mu   sync.RWMutex
	rows map[string]*store.ConversationContext
}

// NewMockRowStore creates a new empty MockRowStore.
func NewMockRowStore() *MockRowStore {
	return &MockRowStore{
		rows: make(map[string]*store.ConversationContext),
	}
}

func (m *MockRowStore) UpsertConversationContext(_ context.Context, upsert *store.ConversationContext) (*store.ConversationContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *upsert
	m.rows[upsert.ID] = &clone
	return upsert, nil
}

func (m *MockRowStore) GetConversationContext(_ context.Context, find *store.FindConversationContext) (*store.ConversationContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.rows {
		if matches(row, find) {
			clone := *row
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockRowStore) DeleteConversationContext(_ context.Context, del *store.DeleteConversationContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rows, del.ID)
	return nil
}

func (m *MockRowStore) DeleteExpiredConversationContexts(_ context.Context, before int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, row := range m.rows {
		if row.ThreadID == "" && row.ExpiresTs > 0 && row.ExpiresTs < before {
			delete(m.rows, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored rows (for testing).
func (m *MockRowStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func matches(row *store.ConversationContext, find *store.FindConversationContext) bool {
	if v := find.ID; v != nil && row.ID != *v {
		return false
	}
	if v := find.ChannelID; v != nil && row.ChannelID != *v {
		return false
	}
	if v := find.ThreadID; v != nil && row.ThreadID != *v {
		return false
	}
	return true
}

// Ensure MockRowStore implements RowStore
var _ RowStore = (*MockRowStore)(nil)
