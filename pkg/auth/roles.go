package auth

// Role names as stored on users.role.
const (
	RoleFarmer = "farmer"
	RoleVendor = "vendor"
)

// IsFarmer reports whether role names the farmer role.
func IsFarmer(role string) bool { return role == RoleFarmer }

// IsVendor reports whether role names the vendor role.
func IsVendor(role string) bool { return role == RoleVendor }
