// Package space implements the role and permission model for Oto spaces.
// All functions are pure and safe for unlimited concurrent callers; unknown
// roles, space types, and actions resolve to the most restrictive outcome
// rather than an error.
package space

import "strings"

// Role is a member's role within a space.
type Role string

const (
	RoleOwner          Role = "owner"
	RoleAdmin          Role = "admin"
	RoleModerator      Role = "moderator"
	RoleContentCreator Role = "content_creator"
	RoleMember         Role = "member"
	RoleGuest          Role = "guest"
)

// roleLevels defines the seniority hierarchy. It is consumed only by
// RoleLevel/HasHigherRole for relative-seniority checks; the action
// permission tables in permission.go are independent whitelists and must
// not be derived from these levels.
var roleLevels = map[Role]int{
	RoleOwner:          5,
	RoleAdmin:          4,
	RoleModerator:      3,
	RoleContentCreator: 2,
	RoleMember:         1,
	RoleGuest:          0,
}

// ParseRole converts a raw string into a Role. Matching is case-insensitive.
// The second return value is false for unrecognized input.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleLevels[r]; !ok {
		return "", false
	}
	return r, true
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// RoleLevel returns the seniority level of a role: owner(5) > admin(4) >
// moderator(3) > content_creator(2) > member(1) > guest(0). Unknown roles
// return -1, below every valid role.
func RoleLevel(r Role) int {
	level, ok := roleLevels[r]
	if !ok {
		return -1
	}
	return level
}

// HasHigherRole reports whether role a is strictly more senior than role b.
// Used for relative checks such as "cannot demote someone above you".
func HasHigherRole(a, b Role) bool {
	return RoleLevel(a) > RoleLevel(b)
}
