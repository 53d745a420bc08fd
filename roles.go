package session

import "strings"

// UserRole is the user's role
type UserRole string

const (
	// RoleStudent takes exams
	RoleStudent UserRole = "student"
	// RoleLecturer authors and reviews exams
	RoleLecturer UserRole = "lecturer"
	// RoleAdmin manages the portal
	RoleAdmin UserRole = "admin"
	// RoleSuperAdmin manages admins and portal-wide settings
	RoleSuperAdmin UserRole = "superadmin"
)

// NormalizeRole lowercases a raw role string into its canonical form. It
// does not validate; unknown roles pass through lowercased.
func NormalizeRole(roleStr string) UserRole {
	return UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := NormalizeRole(roleStr)
	return role, role.IsValid()
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Is compares roles case-insensitively.
func (r UserRole) Is(other UserRole) bool {
	return NormalizeRole(string(r)) == NormalizeRole(string(other))
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleStudent,
		RoleLecturer,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// RoleHomes maps each role to its default landing route.
type RoleHomes struct {
	Admin    string
	Lecturer string
	Student  string
	Root     string
}

// DefaultRoleHomes returns the portal's default landing routes.
func DefaultRoleHomes() RoleHomes {
	return RoleHomes{
		Admin:    "/admin",
		Lecturer: "/lecturer",
		Student:  "/student",
		Root:     "/",
	}
}

// HomeFor resolves the landing route for a role. Admin and superadmin share
// the admin area; anything unrecognized lands on the site root.
func (h RoleHomes) HomeFor(role UserRole) string {
	switch NormalizeRole(string(role)) {
	case RoleAdmin, RoleSuperAdmin:
		return h.Admin
	case RoleLecturer:
		return h.Lecturer
	case RoleStudent:
		return h.Student
	default:
		return h.Root
	}
}

// roleAllowed implements the guard allow-list: empty means any
// authenticated role, comparison is case-insensitive.
func roleAllowed(role UserRole, allowed []UserRole) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if role.Is(candidate) {
			return true
		}
	}
	return false
}
