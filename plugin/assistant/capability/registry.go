package capability

import (
	"github.com/pkg/errors"

	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
)

// Registry maps capabilities to their handlers. Lookups for an unregistered
// capability fall back to the general handler so dispatch never dead-ends.
type Registry struct {
	handlers map[intent.Capability]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[intent.Capability]Handler)}
}

// Register binds a handler to a capability, replacing any previous binding.
func (r *Registry) Register(capability intent.Capability, handler Handler) {
	r.handlers[capability] = handler
}

// Get returns the handler for the capability, falling back to the general
// handler. It errors only when not even a general handler is registered.
func (r *Registry) Get(capability intent.Capability) (Handler, error) {
	if handler, ok := r.handlers[capability]; ok {
		return handler, nil
	}
	if handler, ok := r.handlers[intent.CapabilityGeneral]; ok {
		return handler, nil
	}
	return nil, errors.Errorf("no handler registered for capability %q", capability)
}

// Capabilities lists the capabilities with a registered handler.
func (r *Registry) Capabilities() []intent.Capability {
	out := make([]intent.Capability, 0, len(r.handlers))
	for _, capability := range intent.Capabilities {
		if _, ok := r.handlers[capability]; ok {
			out = append(out, capability)
		}
	}
	return out
}
