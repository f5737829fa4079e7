package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/switchboardhq/switchboard/store"
)

func (d *DB) UpsertConversationContext(ctx context.Context, upsert *store.ConversationContext) (*store.ConversationContext, error) {
	args := []any{
		upsert.ID, upsert.ChannelID, upsert.ThreadID, upsert.UserID,
		upsert.ActiveCapability, upsert.Payload,
		upsert.CreatedTs, upsert.UpdatedTs, upsert.ExpiresTs,
	}

	stmt := `INSERT INTO conversation_context (id, channel_id, thread_id, user_id, active_capability, payload, created_ts, updated_ts, expires_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			active_capability = EXCLUDED.active_capability,
			payload = EXCLUDED.payload,
			updated_ts = EXCLUDED.updated_ts,
			expires_ts = EXCLUDED.expires_ts`

	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to upsert conversation context: %w", err)
	}

	return upsert, nil
}

func (d *DB) GetConversationContext(ctx context.Context, find *store.FindConversationContext) (*store.ConversationContext, error) {
	list, err := d.ListConversationContexts(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListConversationContexts(ctx context.Context, find *store.FindConversationContext) ([]*store.ConversationContext, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ChannelID; v != nil {
		where, args = append(where, "channel_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ThreadID; v != nil {
		where, args = append(where, "thread_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, channel_id, thread_id, user_id, active_capability, payload, created_ts, updated_ts, expires_ts
		FROM conversation_context
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation contexts: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationContext, 0)
	for rows.Next() {
		var conversationContext store.ConversationContext
		if err := rows.Scan(
			&conversationContext.ID,
			&conversationContext.ChannelID,
			&conversationContext.ThreadID,
			&conversationContext.UserID,
			&conversationContext.ActiveCapability,
			&conversationContext.Payload,
			&conversationContext.CreatedTs,
			&conversationContext.UpdatedTs,
			&conversationContext.ExpiresTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation context: %w", err)
		}
		list = append(list, &conversationContext)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation contexts: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteConversationContext(ctx context.Context, delete *store.DeleteConversationContext) error {
	stmt := `DELETE FROM conversation_context WHERE id = $1`
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID); err != nil {
		return fmt.Errorf("failed to delete conversation context: %w", err)
	}
	return nil
}

// DeleteExpiredConversationContexts removes non-threaded rows past their
// expiry. Threaded rows are never matched by the predicate.
func (d *DB) DeleteExpiredConversationContexts(ctx context.Context, before int64) (int64, error) {
	stmt := `DELETE FROM conversation_context WHERE thread_id = '' AND expires_ts > 0 AND expires_ts < $1`
	result, err := d.db.ExecContext(ctx, stmt, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired conversation contexts: %w", err)
	}
	return result.RowsAffected()
}
