package space

// Default tool sets enabled when a space of each type is created.
// The slices below are treated as immutable; DefaultTools hands out copies.
var (
	teamTools = []string{
		"calendar", "notes", "tasks", "goals", "crm", "bookings", "offers",
		"invoice", "agent_card", "agent_chat", "articles", "whatsapp", "email",
	}
	communityTools = []string{
		"articles", "comments", "reactions", "marketplace", "services", "events",
		"mailing_lists",
	}
	roomTools = []string{
		"notes", "tasks", "calendar", "polls",
	}
)

// DefaultTools returns the tool names enabled by default for a space type.
// Unknown types return an empty slice. The returned slice is a copy and may
// be mutated freely by the caller.
func DefaultTools(spaceType Type) []string {
	var tools []string
	switch spaceType {
	case TypeTeam:
		tools = teamTools
	case TypeCommunity:
		tools = communityTools
	case TypeRoom:
		tools = roomTools
	default:
		return []string{}
	}
	out := make([]string, len(tools))
	copy(out, tools)
	return out
}

// HasDefaultTool reports whether the named tool is in the default set for
// the space type.
func HasDefaultTool(spaceType Type, toolName string) bool {
	for _, t := range DefaultTools(spaceType) {
		if t == toolName {
			return true
		}
	}
	return false
}
