package ai

import (
	"context"
	"fmt"
	"strings"
)

// defaultSummaryLimit is the summary ceiling, in runes, applied when the
// caller does not pass one.
const defaultSummaryLimit = 100

// moderationKeywords maps flaggable keywords to their category and severity.
// Matching is case-insensitive substring matching; this is a deliberately
// simple classifier for local and test use.
var moderationKeywords = map[string]struct {
	category string
	severity Severity
}{
	"spam":       {"spam", SeverityLow},
	"scam":       {"fraud", SeverityHigh},
	"phishing":   {"fraud", SeverityHigh},
	"abuse":      {"harassment", SeverityMedium},
	"harassment": {"harassment", SeverityMedium},
	"hate":       {"hate", SeverityHigh},
}

// taskMarkers are phrases that mark a conversation line as actionable.
var taskMarkers = []string{
	"todo", "need to", "needs to", "should", "must", "have to",
	"action item", "follow up", "don't forget", "remember to",
}

// SimulatedProvider is a deterministic, dependency-free Provider used as
// the always-available startup fallback and as a first-class test backend.
// It never touches the network and all methods are safe for concurrent use.
type SimulatedProvider struct {
	// Name reported in generated responses; defaults to "oto-simulated".
	Name string
}

var _ Provider = (*SimulatedProvider)(nil)

// NewSimulatedProvider creates a simulated provider.
func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{Name: "oto-simulated"}
}

// SimulatedDescriptor returns the canonical descriptor for the simulated
// backend.
func SimulatedDescriptor() Descriptor {
	return Descriptor{
		ID:          "simulated",
		DisplayName: "Oto Simulated",
		Kind:        KindSimulated,
		Status:      StatusConnected,
	}
}

// GenerateResponse produces a canned, context-aware reply.
func (p *SimulatedProvider) GenerateResponse(ctx context.Context, prompt string, aictx *Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "How can I help?", nil
	}

	var scope string
	if aictx != nil && aictx.SpaceType != "" {
		scope = fmt.Sprintf(" in this %s space", strings.ToLower(string(aictx.SpaceType)))
	}
	return fmt.Sprintf("Here's my take%s: %s", scope, prompt), nil
}

// Moderate flags content containing any known keyword. The full input is
// scanned; there is no truncation limit.
func (p *SimulatedProvider) Moderate(ctx context.Context, content string) (ModerationResult, error) {
	if err := ctx.Err(); err != nil {
		return ModerationResult{}, err
	}

	lowered := strings.ToLower(content)
	var result ModerationResult
	seen := make(map[string]struct{})
	for keyword, class := range moderationKeywords {
		if !strings.Contains(lowered, keyword) {
			continue
		}
		result.Flagged = true
		if _, dup := seen[class.category]; !dup {
			seen[class.category] = struct{}{}
			result.Categories = append(result.Categories, class.category)
		}
		if severityRank(class.severity) > severityRank(result.Severity) {
			result.Severity = class.severity
		}
	}
	if result.Flagged {
		result.Reason = fmt.Sprintf("content matched flagged categories: %s", strings.Join(result.Categories, ", "))
	}
	return result, nil
}

func severityRank(s Severity) int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Summarize truncates on a word boundary at maxLength runes. Content
// already within the limit is returned unchanged.
func (p *SimulatedProvider) Summarize(ctx context.Context, content string, maxLength int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if maxLength <= 0 {
		maxLength = defaultSummaryLimit
	}
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= maxLength {
		return content, nil
	}

	cut := string(runes[:maxLength])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…", nil
}

// ExtractTasks scans line-delimited conversation text for actionable
// phrases. Zero matches is a normal outcome; duplicates are not removed.
func (p *SimulatedProvider) ExtractTasks(ctx context.Context, conversation string) ([]TaskSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tasks []TaskSuggestion
	for _, line := range strings.Split(conversation, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lowered := strings.ToLower(line)
		if !containsAnyMarker(lowered) {
			continue
		}
		tasks = append(tasks, TaskSuggestion{
			Title:       taskTitle(line),
			Description: line,
			Priority:    inferPriority(lowered),
			DueDate:     inferDueDate(lowered),
		})
	}
	return tasks, nil
}

// IsAvailable always reports true; the simulated backend has no failure
// modes.
func (p *SimulatedProvider) IsAvailable(_ context.Context) bool {
	return true
}

func containsAnyMarker(lowered string) bool {
	for _, marker := range taskMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// taskTitle shortens a line to a title-sized fragment.
func taskTitle(line string) string {
	const maxTitle = 60
	runes := []rune(line)
	if len(runes) <= maxTitle {
		return line
	}
	return strings.TrimSpace(string(runes[:maxTitle])) + "…"
}

func inferPriority(lowered string) Priority {
	switch {
	case strings.Contains(lowered, "urgent") || strings.Contains(lowered, "asap") || strings.Contains(lowered, "immediately"):
		return PriorityUrgent
	case strings.Contains(lowered, "important") || strings.Contains(lowered, "critical") || strings.Contains(lowered, "must"):
		return PriorityHigh
	case strings.Contains(lowered, "maybe") || strings.Contains(lowered, "eventually") || strings.Contains(lowered, "someday"):
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// inferDueDate picks out coarse relative dates. Best-effort only; most
// lines carry no due date at all.
func inferDueDate(lowered string) string {
	for _, hint := range []string{"today", "tomorrow", "this week", "next week", "end of day", "eod"} {
		if strings.Contains(lowered, hint) {
			return hint
		}
	}
	return ""
}
