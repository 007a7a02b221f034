package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allRoles = []Role{RoleOwner, RoleAdmin, RoleModerator, RoleContentCreator, RoleMember, RoleGuest}
var allTypes = []Type{TypeTeam, TypeCommunity, TypeRoom}

func TestCanPost(t *testing.T) {
	tests := []struct {
		role      Role
		spaceType Type
		want      bool
	}{
		{RoleOwner, TypeTeam, true},
		{RoleAdmin, TypeTeam, true},
		{RoleModerator, TypeTeam, true},
		{RoleMember, TypeTeam, true},
		{RoleContentCreator, TypeTeam, false},
		{RoleGuest, TypeTeam, false},

		// Community spaces restrict posting to owner and content creators.
		{RoleOwner, TypeCommunity, true},
		{RoleContentCreator, TypeCommunity, true},
		{RoleAdmin, TypeCommunity, false},
		{RoleModerator, TypeCommunity, false},
		{RoleMember, TypeCommunity, false},
		{RoleGuest, TypeCommunity, false},

		{RoleOwner, TypeRoom, true},
		{RoleMember, TypeRoom, true},
		{RoleGuest, TypeRoom, false},

		// Unknown space types grant nothing, even to roles that may post
		// everywhere else.
		{RoleOwner, Type(""), false},
		{RoleMember, Type(""), false},
		{RoleMember, Type("hallway"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanPost(tt.role, tt.spaceType), "CanPost(%s, %s)", tt.role, tt.spaceType)
	}
}

func TestModeratorWhitelists(t *testing.T) {
	moderators := map[Role]bool{RoleOwner: true, RoleAdmin: true, RoleModerator: true}
	managers := map[Role]bool{RoleOwner: true, RoleAdmin: true}

	for _, role := range allRoles {
		assert.Equal(t, moderators[role], CanModerate(role), "CanModerate(%s)", role)
		assert.Equal(t, moderators[role], CanInviteMembers(role), "CanInviteMembers(%s)", role)
		assert.Equal(t, managers[role], CanManageTools(role), "CanManageTools(%s)", role)
		assert.Equal(t, managers[role], CanManageRoles(role), "CanManageRoles(%s)", role)
		assert.Equal(t, managers[role], CanCreateChannels(role), "CanCreateChannels(%s)", role)
	}
}

func TestCanAccessTool(t *testing.T) {
	// Guests get a fixed allow-list, case-insensitive on tool name.
	assert.True(t, CanAccessTool(RoleGuest, "calendar", TypeTeam))
	assert.True(t, CanAccessTool(RoleGuest, "Notes", TypeRoom))
	assert.True(t, CanAccessTool(RoleGuest, "CALENDAR", TypeCommunity))
	assert.False(t, CanAccessTool(RoleGuest, "crm", TypeTeam))
	assert.False(t, CanAccessTool(RoleGuest, "tasks", TypeRoom))

	// Everyone else is unrestricted, regardless of space type.
	for _, role := range allRoles {
		if role == RoleGuest {
			continue
		}
		for _, spaceType := range allTypes {
			assert.True(t, CanAccessTool(role, "anything", spaceType), "CanAccessTool(%s)", role)
		}
	}

	// Unknown roles fail closed.
	assert.False(t, CanAccessTool(Role("stranger"), "calendar", TypeTeam))
}

func TestHasPermissionDispatcherConsistency(t *testing.T) {
	for _, role := range allRoles {
		for _, spaceType := range allTypes {
			assert.Equal(t, CanPost(role, spaceType), HasPermission(role, ActionPost, spaceType))
			assert.Equal(t, CanModerate(role), HasPermission(role, ActionModerate, spaceType))
			assert.Equal(t, CanManageTools(role), HasPermission(role, ActionManageTools, spaceType))
			assert.Equal(t, CanManageRoles(role), HasPermission(role, ActionManageRoles, spaceType))
			assert.Equal(t, CanCreateChannels(role), HasPermission(role, ActionCreateChannels, spaceType))
			assert.Equal(t, CanInviteMembers(role), HasPermission(role, ActionInvite, spaceType))
		}
	}
}

func TestHasPermissionUnknownActionFailsClosed(t *testing.T) {
	assert.False(t, HasPermission(RoleOwner, Action("self_destruct"), TypeTeam))
	assert.False(t, HasPermission(RoleOwner, Action(""), TypeTeam))
}

func TestHasPermissionUnknownTypeFailsClosed(t *testing.T) {
	for _, role := range allRoles {
		assert.False(t, HasPermission(role, ActionPost, Type("")), "HasPermission(%s, post, \"\")", role)
		assert.False(t, HasPermission(role, ActionPost, Type("hallway")), "HasPermission(%s, post, hallway)", role)
	}
}

func TestPostingScenarios(t *testing.T) {
	assert.True(t, HasPermission(RoleContentCreator, ActionPost, TypeCommunity))
	assert.False(t, HasPermission(RoleMember, ActionPost, TypeCommunity))
	assert.True(t, HasPermission(RoleMember, ActionPost, TypeTeam))
}
