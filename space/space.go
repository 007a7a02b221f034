package space

import "strings"

// Type classifies a space. The type drives both the posting policy and the
// default tool set.
type Type string

const (
	TypeTeam      Type = "Team"
	TypeCommunity Type = "Community"
	TypeRoom      Type = "Room"
)

// ParseType converts a raw string into a space Type. Matching is
// case-insensitive. The second return value is false for unrecognized input.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "team":
		return TypeTeam, true
	case "community":
		return TypeCommunity, true
	case "room":
		return TypeRoom, true
	default:
		return "", false
	}
}

// Valid reports whether the type is one of the known space types.
func (t Type) Valid() bool {
	switch t {
	case TypeTeam, TypeCommunity, TypeRoom:
		return true
	default:
		return false
	}
}

// Action is a gated operation within a space.
type Action string

const (
	ActionPost           Action = "post"
	ActionModerate       Action = "moderate"
	ActionManageTools    Action = "manage_tools"
	ActionManageRoles    Action = "manage_roles"
	ActionCreateChannels Action = "create_channels"
	ActionInvite         Action = "invite"
)

// ParseAction converts a raw string into an Action. Matching is
// case-insensitive. The second return value is false for unrecognized input.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionPost, ActionModerate, ActionManageTools, ActionManageRoles, ActionCreateChannels, ActionInvite:
		return a, true
	default:
		return "", false
	}
}
