package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboardhq/switchboard/store"
)

func TestCleanupJob_RunOnce(t *testing.T) {
	rows := NewMockRowStore()
	svc := NewService(rows, DefaultConfig())
	job := NewCleanupJob(svc, time.Minute)
	ctx := context.Background()

	expired, err := svc.GetOrCreate(ctx, "C1", "", "U1")
	require.NoError(t, err)

	row, err := rows.GetConversationContext(ctx, &store.FindConversationContext{ID: &expired.ID})
	require.NoError(t, err)
	row.ExpiresTs = time.Now().Unix() - 60
	_, err = rows.UpsertConversationContext(ctx, row)
	require.NoError(t, err)

	removed, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.Equal(t, 0, rows.Len())
}

func TestCleanupJob_StartStop(t *testing.T) {
	svc := NewService(NewMockRowStore(), DefaultConfig())
	job := NewCleanupJob(svc, time.Minute)
	ctx := context.Background()

	assert.False(t, job.IsRunning())

	job.Start(ctx)
	assert.True(t, job.IsRunning())

	// Starting twice is a no-op.
	job.Start(ctx)
	assert.True(t, job.IsRunning())

	job.Stop()
	assert.False(t, job.IsRunning())

	// Stopping twice is a no-op.
	job.Stop()
	assert.False(t, job.IsRunning())
}
