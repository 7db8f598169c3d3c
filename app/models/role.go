package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/shashiranjanraj/farmlink/pkg/auth"
)

// Role is the closed set of account kinds.
type Role string

const (
	RoleFarmer Role = auth.RoleFarmer
	RoleVendor Role = auth.RoleVendor
)

// Roles lists every valid role.
var Roles = []Role{RoleFarmer, RoleVendor}

// ParseRole converts s to a Role, rejecting anything else.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("models: unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool    { return r.IsFarmer() || r.IsVendor() }
func (r Role) IsFarmer() bool { return auth.IsFarmer(string(r)) }
func (r Role) IsVendor() bool { return auth.IsVendor(string(r)) }
func (r Role) String() string { return string(r) }

// Value refuses to write an unknown role.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("models: refusing to store role %q", string(r))
	}
	return string(r), nil
}

// Scan refuses to read an unknown role.
func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// HomeFor is where a freshly logged-in user of role lands.
func HomeFor(role Role) string {
	switch {
	case role.IsVendor():
		return "/vendor/dashboard"
	case role.IsFarmer():
		return "/farmer/dashboard"
	default:
		return "/"
	}
}
