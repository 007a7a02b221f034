package ai

import (
	"context"
	"strings"

	"github.com/otolabs/oto/space"
)

// MentionToken is the handle that addresses the assistant in a message.
// Matching is case-insensitive.
const MentionToken = "@oto"

// Space-type-specific system preambles. The assistant adapts its register
// to where the conversation happens.
const (
	teamPreamble = "You are Oto, the team workspace assistant. " +
		"Be concise and practical: help with tasks, schedules, goals and day-to-day coordination."
	communityPreamble = "You are Oto, the community assistant. " +
		"Be welcoming and informative: help members find articles, events and discussions."
	roomPreamble = "You are Oto, the room assistant. " +
		"Keep answers short and conversational; help the group take notes and track follow-ups."
	genericPreamble = "You are Oto, a helpful assistant."
)

// ModerationVerdict is the assistant-level moderation outcome: the
// provider's flagged bit inverted into an approval, with the reason carried
// through only on rejection.
type ModerationVerdict struct {
	Approved bool
	Reason   string
}

// Assistant mediates between spaces and the active AI provider: it detects
// mentions, strips the mention token, builds space-aware prompts, and
// delegates everything else to the registry's default provider. It holds no
// state of its own; failures originate below and pass through unchanged.
type Assistant struct {
	registry *Registry
}

// NewAssistant creates an assistant backed by the given registry.
func NewAssistant(registry *Registry) *Assistant {
	return &Assistant{registry: registry}
}

// IsMentioned reports whether the message addresses the assistant.
// Case-insensitive; the token requires the "@" prefix, so a bare "oto"
// does not count.
func IsMentioned(message string) bool {
	return strings.Contains(strings.ToLower(message), MentionToken)
}

// ExtractMessage removes every occurrence of the mention token
// (case-insensitive) and trims surrounding whitespace. Stripping repeats
// until no token remains, since removing one occurrence can splice the
// surrounding text into another ("@ot@otoo"). Idempotent.
func ExtractMessage(message string) string {
	for {
		stripped := stripMentionTokens(message)
		if stripped == message {
			return strings.TrimSpace(stripped)
		}
		message = stripped
	}
}

// stripMentionTokens is a single left-to-right removal pass over message.
func stripMentionTokens(message string) string {
	var b strings.Builder
	b.Grow(len(message))
	for i := 0; i < len(message); {
		if i+len(MentionToken) <= len(message) && strings.EqualFold(message[i:i+len(MentionToken)], MentionToken) {
			i += len(MentionToken)
			continue
		}
		b.WriteByte(message[i])
		i++
	}
	return b.String()
}

// HandleMention strips the mention from the message, prepends the preamble
// for the space type, and asks the active provider for a reply. Provider
// failures propagate unchanged; callers decide whether to surface them or
// silently skip the AI reply.
func (a *Assistant) HandleMention(ctx context.Context, message string, aictx *Context) (string, error) {
	provider, _, err := a.registry.GetDefault()
	if err != nil {
		return "", err
	}

	var spaceType space.Type
	if aictx != nil {
		spaceType = aictx.SpaceType
	}
	prompt := systemPreamble(spaceType) + "\n\n" + ExtractMessage(message)
	return provider.GenerateResponse(ctx, prompt, aictx)
}

func systemPreamble(t space.Type) string {
	switch t {
	case space.TypeTeam:
		return teamPreamble
	case space.TypeCommunity:
		return communityPreamble
	case space.TypeRoom:
		return roomPreamble
	default:
		return genericPreamble
	}
}

// ModerateContent classifies content via the active provider and inverts
// the flagged bit into an approval.
func (a *Assistant) ModerateContent(ctx context.Context, content string) (ModerationVerdict, error) {
	provider, _, err := a.registry.GetDefault()
	if err != nil {
		return ModerationVerdict{}, err
	}

	result, err := provider.Moderate(ctx, content)
	if err != nil {
		return ModerationVerdict{}, err
	}
	verdict := ModerationVerdict{Approved: !result.Flagged}
	if result.Flagged {
		verdict.Reason = result.Reason
	}
	return verdict, nil
}

// SuggestTasks passes the conversation through to the active provider's
// task extraction.
func (a *Assistant) SuggestTasks(ctx context.Context, conversation string) ([]TaskSuggestion, error) {
	provider, _, err := a.registry.GetDefault()
	if err != nil {
		return nil, err
	}
	return provider.ExtractTasks(ctx, conversation)
}

// Summarize passes content through to the active provider's summarizer
// with the provider-chosen default length ceiling.
func (a *Assistant) Summarize(ctx context.Context, content string) (string, error) {
	provider, _, err := a.registry.GetDefault()
	if err != nil {
		return "", err
	}
	return provider.Summarize(ctx, content, 0)
}
