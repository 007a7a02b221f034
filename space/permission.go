package space

import "strings"

// guestToolAllowlist is the fixed set of tools a guest may access,
// matched case-insensitively on tool name.
var guestToolAllowlist = map[string]struct{}{
	"calendar": {},
	"notes":    {},
}

// CanPost reports whether the role may post in the given space type.
// Community spaces restrict posting to the owner and content creators;
// every other valid space type allows owner, admin, moderator and member.
// Guests may not post anywhere, and an unknown space type grants nothing.
func CanPost(role Role, spaceType Type) bool {
	if !spaceType.Valid() {
		return false
	}
	if spaceType == TypeCommunity {
		return role == RoleOwner || role == RoleContentCreator
	}
	switch role {
	case RoleOwner, RoleAdmin, RoleModerator, RoleMember:
		return true
	default:
		return false
	}
}

// CanModerate reports whether the role may moderate content.
func CanModerate(role Role) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleModerator:
		return true
	default:
		return false
	}
}

// CanManageTools reports whether the role may enable or disable space tools.
func CanManageTools(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanManageRoles reports whether the role may assign roles to other members.
func CanManageRoles(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanCreateChannels reports whether the role may create channels.
func CanCreateChannels(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// CanInviteMembers reports whether the role may invite new members.
func CanInviteMembers(role Role) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleModerator:
		return true
	default:
		return false
	}
}

// CanAccessTool reports whether the role may use the named tool. Guests are
// restricted to a small fixed allow-list; every other valid role has
// unrestricted tool access. The space type is accepted for forward
// compatibility but does not affect the current rules.
func CanAccessTool(role Role, toolName string, _ Type) bool {
	if role == RoleGuest {
		_, ok := guestToolAllowlist[strings.ToLower(toolName)]
		return ok
	}
	return role.Valid()
}

// HasPermission dispatches an action to the corresponding permission check.
// Unknown actions resolve to false.
func HasPermission(role Role, action Action, spaceType Type) bool {
	switch action {
	case ActionPost:
		return CanPost(role, spaceType)
	case ActionModerate:
		return CanModerate(role)
	case ActionManageTools:
		return CanManageTools(role)
	case ActionManageRoles:
		return CanManageRoles(role)
	case ActionCreateChannels:
		return CanCreateChannels(role)
	case ActionInvite:
		return CanInviteMembers(role)
	default:
		return false
	}
}
