package permission

// Role names issued by the identity service.
const (
	RoleSuperAdmin      = "super_admin"
	RoleAdmin           = "admin"
	RolePropertyManager = "property_manager"
	RoleOwner           = "owner"
	RoleTenant          = "tenant"
	RoleMaintenance     = "maintenance"
)
