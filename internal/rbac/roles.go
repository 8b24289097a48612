package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleViewer     = "viewer"
	RoleSuperAdmin = "super_admin"
	RoleSupport    = "support" // hidden role
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSupport }

// Readers may list agents, calls and bookings. Editors may also change agents.
var (
	Readers = []string{RoleOwner, RoleAdmin, RoleViewer}
	Editors = []string{RoleOwner, RoleAdmin}
)
