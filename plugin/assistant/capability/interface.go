// Package capability hosts the handlers a classified message is dispatched
// to, keyed by capability.
package capability

import (
	"context"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
)

// Request carries everything a handler needs for one turn.
type Request struct {
	// Message is the raw user message.
	Message string
	// Intent is the classifier's free-form intent description.
	Intent string
	// History holds the recent turns of the conversation, oldest first.
	History []conversation.Turn
	// Entities are the extracted entities after pronoun resolution.
	Entities []intent.ExtractedEntity
}

// Response is a handler's reply for one turn.
type Response struct {
	// Text is the assistant reply shown to the user.
	Text string
	// Entities are entities this turn touched, to be recorded on the
	// conversation for later pronoun resolution.
	Entities []conversation.EntityRef
}

// Handler executes one capability's work for a single turn.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}
