package conversation

import (
	"encoding/json"
	"log/slog"
)

// contextPayload is the explicit value object behind the serialized blob a
// context row carries. It exists only at the storage boundary: the service
// enforces every cap and dedup rule on the in-memory Context before
// marshaling, never inside the store.
type contextPayload struct {
	Turns    []Turn                     `json:"turns"`
	Entities map[EntityKind][]EntityRef `json:"entities"`
}

func marshalPayload(c *Context) (string, error) {
	payload := contextPayload{
		Turns:    c.Turns,
		Entities: c.Entities,
	}
	if payload.Turns == nil {
		payload.Turns = []Turn{}
	}
	if payload.Entities == nil {
		payload.Entities = map[EntityKind][]EntityRef{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalPayload decodes a stored blob. A corrupt blob degrades to an
// empty history rather than failing the whole conversation.
func unmarshalPayload(contextID, data string) contextPayload {
	payload := contextPayload{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			slog.Warn("failed to unmarshal context payload, starting empty",
				"context_id", contextID, "error", err)
			payload = contextPayload{}
		}
	}
	if payload.Turns == nil {
		payload.Turns = []Turn{}
	}
	if payload.Entities == nil {
		payload.Entities = map[EntityKind][]EntityRef{}
	}
	return payload
}
