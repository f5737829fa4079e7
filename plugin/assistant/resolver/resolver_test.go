package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
)

func testContext() *conversation.Context {
	return &conversation.Context{
		Entities: map[conversation.EntityKind][]conversation.EntityRef{
			conversation.EntityKindContact: {
				{Kind: conversation.EntityKindContact, ID: "c0", Name: "Jordan Baker"},
				{Kind: conversation.EntityKindContact, ID: "c1", Name: "Maria Lopez"},
			},
			conversation.EntityKindDeal: {
				{Kind: conversation.EntityKindDeal, ID: "d1", Name: "Acme renewal"},
			},
			conversation.EntityKindCompany: {
				{Kind: conversation.EntityKindCompany, ID: "co1", Name: "Acme Corp"},
			},
		},
	}
}

func TestResolver_Pronouns(t *testing.T) {
	r := New()
	conv := testContext()

	tests := []struct {
		name         string
		value        string
		kind         conversation.EntityKind
		expectedID   string
		expectedName string
	}{
		{
			name:         "Her resolves to most recent contact",
			value:        "her",
			kind:         conversation.EntityKindContact,
			expectedID:   "c1",
			expectedName: "Maria Lopez",
		},
		{
			name:         "Him resolves to most recent contact",
			value:        "him",
			kind:         conversation.EntityKindContact,
			expectedID:   "c1",
			expectedName: "Maria Lopez",
		},
		{
			name:         "It resolves to most recent deal",
			value:        "it",
			kind:         conversation.EntityKindDeal,
			expectedID:   "d1",
			expectedName: "Acme renewal",
		},
		{
			name:         "Them prefers contacts over companies",
			value:        "them",
			kind:         conversation.EntityKindContact,
			expectedID:   "c1",
			expectedName: "Maria Lopez",
		},
		{
			name:         "Case and whitespace tolerated",
			value:        " Her ",
			kind:         conversation.EntityKindContact,
			expectedID:   "c1",
			expectedName: "Maria Lopez",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Resolve(conv, []intent.ExtractedEntity{{Kind: tt.kind, Value: tt.value}})
			require.Len(t, out, 1)
			assert.True(t, out[0].Resolved())
			assert.Equal(t, tt.expectedID, out[0].ResolvedID)
			assert.Equal(t, tt.expectedName, out[0].ResolvedName)
		})
	}
}

func TestResolver_FallbackKinds(t *testing.T) {
	r := New()

	// No deals mentioned: "it" falls back to the company.
	conv := testContext()
	conv.Entities[conversation.EntityKindDeal] = nil

	out := r.Resolve(conv, []intent.ExtractedEntity{{Kind: conversation.EntityKindDeal, Value: "it"}})
	require.Len(t, out, 1)
	assert.Equal(t, conversation.EntityKindCompany, out[0].Kind)
	assert.Equal(t, "co1", out[0].ResolvedID)

	// No contacts either: "they" falls back to the company.
	conv.Entities[conversation.EntityKindContact] = nil
	out = r.Resolve(conv, []intent.ExtractedEntity{{Kind: conversation.EntityKindContact, Value: "they"}})
	require.Len(t, out, 1)
	assert.Equal(t, "co1", out[0].ResolvedID)
}

func TestResolver_PassThrough(t *testing.T) {
	r := New()
	conv := testContext()

	// Already resolved: untouched.
	pre := intent.ExtractedEntity{
		Kind:         conversation.EntityKindContact,
		Value:        "Maria",
		ResolvedID:   "c1",
		ResolvedName: "Maria Lopez",
	}
	out := r.Resolve(conv, []intent.ExtractedEntity{pre})
	require.Len(t, out, 1)
	assert.Equal(t, pre, out[0])

	// Not a pronoun: untouched.
	out = r.Resolve(conv, []intent.ExtractedEntity{{Kind: conversation.EntityKindDeal, Value: "Acme renewal"}})
	require.Len(t, out, 1)
	assert.False(t, out[0].Resolved())
	assert.Equal(t, "Acme renewal", out[0].Value)

	// Gendered pronoun without any contact: passes through unresolved.
	empty := &conversation.Context{}
	out = r.Resolve(empty, []intent.ExtractedEntity{{Kind: conversation.EntityKindContact, Value: "he"}})
	require.Len(t, out, 1)
	assert.False(t, out[0].Resolved())

	// Empty slice round-trips.
	assert.Empty(t, r.Resolve(conv, nil))
}
