package models

// Profile is the role-specific half of an account: *Farmer or *Vendor.
type Profile interface {
	Role() Role
	// attach links the profile to its user row.
	attach(userID uint)
}

// Farmer lists products.
type Farmer struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FarmName string `gorm:"size:100;not null" json:"farm_name"`
	Location string `gorm:"size:100;not null" json:"location"`

	User     *User     `json:"user,omitempty"`
	Products []Product `json:"products,omitempty"`
}

// Vendor orders products.
type Vendor struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	UserID          uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName        string `gorm:"size:100;not null" json:"full_name"`
	ShippingAddress string `gorm:"size:200;not null" json:"shipping_address"`

	User   *User   `json:"user,omitempty"`
	Orders []Order `json:"orders,omitempty"`
}

func (*Farmer) Role() Role { return RoleFarmer }
func (*Vendor) Role() Role { return RoleVendor }

func (f *Farmer) attach(userID uint) { f.UserID = userID }
func (v *Vendor) attach(userID uint) { v.UserID = userID }

// Attach sets p's owner. It is the only way to link a profile built
// outside this package.
func Attach(p Profile, userID uint) { p.attach(userID) }
