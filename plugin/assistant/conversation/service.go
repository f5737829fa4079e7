package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/switchboardhq/switchboard/store"
)

const (
	// DefaultHistoryLimit is the maximum number of turns kept per context.
	DefaultHistoryLimit = 10
	// DefaultEntityLimit is the maximum number of tracked entities per kind.
	DefaultEntityLimit = 5
	// DefaultTTL is how long a non-threaded context lives without activity.
	DefaultTTL = 24 * time.Hour
)

// Config holds the caps and expiry settings for the context service.
type Config struct {
	HistoryLimit int
	EntityLimit  int
	TTL          time.Duration
}

// DefaultConfig returns the default context service configuration.
func DefaultConfig() Config {
	return Config{
		HistoryLimit: DefaultHistoryLimit,
		EntityLimit:  DefaultEntityLimit,
		TTL:          DefaultTTL,
	}
}

type service struct {
	rows   RowStore
	config Config
}

// NewService creates a conversation context service on top of a row store.
func NewService(rows RowStore, config Config) Service {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = DefaultHistoryLimit
	}
	if config.EntityLimit <= 0 {
		config.EntityLimit = DefaultEntityLimit
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &service{rows: rows, config: config}
}

func (s *service) GetOrCreate(ctx context.Context, channelID, threadID, userID string) (*Context, error) {
	row, err := s.rows.GetConversationContext(ctx, &store.FindConversationContext{
		ChannelID: &channelID,
		ThreadID:  &threadID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up context")
	}

	now := time.Now().Unix()
	if row != nil {
		// Threaded contexts ignore expiry entirely; an expired
		// non-threaded row is replaced by a fresh one.
		if row.IsThreaded() || row.ExpiresTs == 0 || row.ExpiresTs > now {
			return fromRow(row), nil
		}
		if err := s.rows.DeleteConversationContext(ctx, &store.DeleteConversationContext{ID: row.ID}); err != nil {
			return nil, errors.Wrap(err, "failed to drop expired context")
		}
		slog.Debug("replaced expired context", "context_id", row.ID, "channel_id", channelID)
	}

	created := &Context{
		ID:        shortuuid.New(),
		ChannelID: channelID,
		ThreadID:  threadID,
		UserID:    userID,
		Turns:     []Turn{},
		Entities:  map[EntityKind][]EntityRef{},
		CreatedTs: now,
		UpdatedTs: now,
	}
	if threadID == "" {
		created.ExpiresTs = now + int64(s.config.TTL.Seconds())
	}

	if err := s.save(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, channelID, threadID string) (*Context, error) {
	row, err := s.rows.GetConversationContext(ctx, &store.FindConversationContext{
		ChannelID: &channelID,
		ThreadID:  &threadID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up context")
	}
	if row == nil {
		return nil, nil
	}
	return fromRow(row), nil
}

func (s *service) AddTurn(ctx context.Context, contextID string, turn Turn) error {
	conversation, err := s.load(ctx, contextID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return nil
	}

	if turn.CreatedTs == 0 {
		turn.CreatedTs = time.Now().Unix()
	}
	conversation.Turns = append(conversation.Turns, turn)

	// Sliding window: oldest turns drop first.
	if len(conversation.Turns) > s.config.HistoryLimit {
		conversation.Turns = conversation.Turns[len(conversation.Turns)-s.config.HistoryLimit:]
	}

	conversation.UpdatedTs = time.Now().Unix()
	return s.save(ctx, conversation)
}

func (s *service) SetActiveCapability(ctx context.Context, contextID, capability string) error {
	conversation, err := s.load(ctx, contextID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return nil
	}

	conversation.ActiveCapability = capability
	conversation.UpdatedTs = time.Now().Unix()
	return s.save(ctx, conversation)
}

func (s *service) AddEntity(ctx context.Context, contextID string, entity EntityRef) error {
	conversation, err := s.load(ctx, contextID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return nil
	}

	if entity.MentionedTs == 0 {
		entity.MentionedTs = time.Now().Unix()
	}

	list := conversation.Entities[entity.Kind]
	updated := false
	for i := range list {
		if list[i].ID == entity.ID {
			list[i] = entity
			updated = true
			break
		}
	}
	if !updated {
		list = append(list, entity)
		if len(list) > s.config.EntityLimit {
			list = list[len(list)-s.config.EntityLimit:]
		}
	}
	conversation.Entities[entity.Kind] = list

	conversation.UpdatedTs = time.Now().Unix()
	return s.save(ctx, conversation)
}

func (s *service) GetRecentEntity(ctx context.Context, contextID string, kind EntityKind) (*EntityRef, error) {
	conversation, err := s.load(ctx, contextID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, nil
	}

	list := conversation.Entities[kind]
	if len(list) == 0 {
		return nil, nil
	}
	recent := list[len(list)-1]
	return &recent, nil
}

func (s *service) TouchActivity(ctx context.Context, contextID string, isThreaded bool) error {
	conversation, err := s.load(ctx, contextID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return nil
	}

	now := time.Now().Unix()
	conversation.UpdatedTs = now
	if !isThreaded {
		conversation.ExpiresTs = now + int64(s.config.TTL.Seconds())
	}
	return s.save(ctx, conversation)
}

func (s *service) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.rows.DeleteExpiredConversationContexts(ctx, time.Now().Unix())
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up expired contexts")
	}
	return removed, nil
}

// load fetches a context by identifier, returning nil when the row no
// longer exists so mutations degrade to no-ops.
func (s *service) load(ctx context.Context, contextID string) (*Context, error) {
	row, err := s.rows.GetConversationContext(ctx, &store.FindConversationContext{ID: &contextID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load context")
	}
	if row == nil {
		slog.Debug("context no longer exists, skipping mutation", "context_id", contextID)
		return nil, nil
	}
	return fromRow(row), nil
}

func (s *service) save(ctx context.Context, c *Context) error {
	row, err := toRow(c)
	if err != nil {
		return errors.Wrap(err, "failed to serialize context")
	}
	if _, err := s.rows.UpsertConversationContext(ctx, row); err != nil {
		return errors.Wrap(err, "failed to persist context")
	}
	return nil
}

func fromRow(row *store.ConversationContext) *Context {
	payload := unmarshalPayload(row.ID, row.Payload)
	return &Context{
		ID:               row.ID,
		ChannelID:        row.ChannelID,
		ThreadID:         row.ThreadID,
		UserID:           row.UserID,
		ActiveCapability: row.ActiveCapability,
		Turns:            payload.Turns,
		Entities:         payload.Entities,
		CreatedTs:        row.CreatedTs,
		UpdatedTs:        row.UpdatedTs,
		ExpiresTs:        row.ExpiresTs,
	}
}

func toRow(c *Context) (*store.ConversationContext, error) {
	payload, err := marshalPayload(c)
	if err != nil {
		return nil, err
	}
	return &store.ConversationContext{
		ID:               c.ID,
		ChannelID:        c.ChannelID,
		ThreadID:         c.ThreadID,
		UserID:           c.UserID,
		ActiveCapability: c.ActiveCapability,
		Payload:          payload,
		CreatedTs:        c.CreatedTs,
		UpdatedTs:        c.UpdatedTs,
		ExpiresTs:        c.ExpiresTs,
	}, nil
}

// Ensure service implements Service
var _ Service = (*service)(nil)
