// Package resolver maps pronoun mentions in extracted entities back to
// concrete entities the conversation has already touched.
package resolver

import (
	"log/slog"
	"strings"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
)

// pronounRule maps a set of pronouns to the entity kinds to try, in order.
// The first kind with a recent mention wins.
type pronounRule struct {
	pronouns map[string]bool
	kinds    []conversation.EntityKind
}

var pronounRules = []pronounRule{
	{
		// Plural pronouns can name a group of people or an organization.
		pronouns: map[string]bool{"they": true, "them": true, "their": true, "theirs": true},
		kinds:    []conversation.EntityKind{conversation.EntityKindContact, conversation.EntityKindCompany},
	},
	{
		pronouns: map[string]bool{"he": true, "him": true, "his": true, "she": true, "her": true, "hers": true},
		kinds:    []conversation.EntityKind{conversation.EntityKindContact},
	},
	{
		pronouns: map[string]bool{"it": true, "its": true},
		kinds:    []conversation.EntityKind{conversation.EntityKindDeal, conversation.EntityKindCompany},
	},
}

// Resolver fills in ResolvedID/ResolvedName on pronoun entities using the
// conversation's recent entity lists.
type Resolver struct{}

func New() *Resolver {
	return &Resolver{}
}

// Resolve walks the extracted entities and resolves any whose value is a
// pronoun. Already-resolved entities are left untouched, and pronouns with
// no recent referent pass through unresolved rather than failing the turn.
func (r *Resolver) Resolve(conv *conversation.Context, entities []intent.ExtractedEntity) []intent.ExtractedEntity {
	if len(entities) == 0 {
		return entities
	}

	resolved := make([]intent.ExtractedEntity, len(entities))
	for i, entity := range entities {
		resolved[i] = r.resolveOne(conv, entity)
	}
	return resolved
}

func (r *Resolver) resolveOne(conv *conversation.Context, entity intent.ExtractedEntity) intent.ExtractedEntity {
	if entity.Resolved() {
		return entity
	}

	pronoun := strings.ToLower(strings.TrimSpace(entity.Value))
	rule, ok := ruleFor(pronoun)
	if !ok {
		return entity
	}

	for _, kind := range rule.kinds {
		ref := conv.MostRecentEntity(kind)
		if ref == nil {
			continue
		}
		slog.Debug("resolved pronoun",
			slog.String("pronoun", pronoun),
			slog.String("kind", string(ref.Kind)),
			slog.String("name", ref.Name))
		entity.Kind = ref.Kind
		entity.ResolvedID = ref.ID
		entity.ResolvedName = ref.Name
		return entity
	}

	slog.Debug("unresolved pronoun", slog.String("pronoun", pronoun))
	return entity
}

func ruleFor(pronoun string) (pronounRule, bool) {
	for _, rule := range pronounRules {
		if rule.pronouns[pronoun] {
			return rule, true
		}
	}
	return pronounRule{}, false
}
