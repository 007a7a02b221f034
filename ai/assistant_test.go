package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otolabs/oto/space"
)

func TestIsMentioned(t *testing.T) {
	assert.True(t, IsMentioned("Hey @Oto, can you help?"))
	assert.True(t, IsMentioned("@OTO please"))
	assert.True(t, IsMentioned("mid-sentence @oto works too"))
	assert.False(t, IsMentioned("Hey oto, help"))
	assert.False(t, IsMentioned(""))
	assert.False(t, IsMentioned("nothing to see"))
}

func TestExtractMessage(t *testing.T) {
	assert.Equal(t, "please summarize this", ExtractMessage("@Oto please summarize this"))
	// Only surrounding whitespace is trimmed; interior gaps stay.
	assert.Equal(t, "before  and after", ExtractMessage("before @oto and after @OTO"))
	assert.Equal(t, "", ExtractMessage("@oto"))
	assert.Equal(t, "untouched", ExtractMessage("untouched"))
	// Removing one occurrence can splice a new one together; stripping
	// must continue until none remain.
	assert.Equal(t, "hello", ExtractMessage("@ot@otoo hello"))
	assert.Equal(t, "", ExtractMessage("@ot@ot@otooo"))
}

func TestExtractMessageIdempotent(t *testing.T) {
	inputs := []string{
		"@Oto please summarize this",
		"  @oto   spaced out  ",
		"no mention here",
		"@ot@otoo spliced",
		"@OT@oToO mixed case splice",
	}
	for _, input := range inputs {
		once := ExtractMessage(input)
		assert.Equal(t, once, ExtractMessage(once), "input %q", input)
	}
}

func newTestAssistant(t *testing.T, p Provider) *Assistant {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register("test", p, descriptorFor("test")))
	return NewAssistant(r)
}

func TestHandleMentionBuildsSpacePreamble(t *testing.T) {
	tests := []struct {
		spaceType space.Type
		wantWord  string
	}{
		{space.TypeTeam, "team workspace assistant"},
		{space.TypeCommunity, "community assistant"},
		{space.TypeRoom, "room assistant"},
		{space.Type(""), "helpful assistant"},
	}
	for _, tt := range tests {
		var gotPrompt string
		assistant := newTestAssistant(t, &stubProvider{
			generate: func(_ context.Context, prompt string, _ *Context) (string, error) {
				gotPrompt = prompt
				return "ok", nil
			},
		})

		_, err := assistant.HandleMention(context.Background(), "@oto what's up", &Context{SpaceType: tt.spaceType})
		require.NoError(t, err)
		assert.Contains(t, gotPrompt, tt.wantWord, "space type %q", tt.spaceType)
		assert.Contains(t, gotPrompt, "what's up")
		assert.False(t, strings.Contains(strings.ToLower(gotPrompt), "@oto"), "mention token stripped")
	}
}

func TestHandleMentionPropagatesProviderFailure(t *testing.T) {
	assistant := newTestAssistant(t, &stubProvider{
		generate: func(context.Context, string, *Context) (string, error) {
			return "", ErrProviderUnavailable
		},
	})

	_, err := assistant.HandleMention(context.Background(), "@oto hello", nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestHandleMentionEmptyRegistry(t *testing.T) {
	assistant := NewAssistant(NewRegistry())
	_, err := assistant.HandleMention(context.Background(), "@oto hello", nil)
	assert.ErrorIs(t, err, ErrNoProvidersRegistered)
}

func TestModerateContentInvertsFlag(t *testing.T) {
	assistant := newTestAssistant(t, &stubProvider{
		moderate: func(_ context.Context, content string) (ModerationResult, error) {
			if strings.Contains(content, "bad") {
				return ModerationResult{Flagged: true, Reason: "contains badness"}, nil
			}
			return ModerationResult{}, nil
		},
	})

	verdict, err := assistant.ModerateContent(context.Background(), "all good here")
	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Empty(t, verdict.Reason)

	verdict, err = assistant.ModerateContent(context.Background(), "something bad")
	require.NoError(t, err)
	assert.False(t, verdict.Approved)
	assert.Equal(t, "contains badness", verdict.Reason)
}

func TestAssistantPassthroughs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("simulated", NewSimulatedProvider(), SimulatedDescriptor()))
	assistant := NewAssistant(r)

	tasks, err := assistant.SuggestTasks(context.Background(), "we need to ship the release notes")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	summary, err := assistant.Summarize(context.Background(), "short text")
	require.NoError(t, err)
	assert.Equal(t, "short text", summary)
}
