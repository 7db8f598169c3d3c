package models

import "time"

// User is an account. Exactly one of Farmer or Vendor is set, matching Role.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"size:200;not null" json:"-"` // bcrypt hash
	Role       Role      `gorm:"size:10;not null" json:"role"`
	County     string    `gorm:"size:50;not null" json:"county"`
	SubCounty  string    `gorm:"size:50;not null" json:"sub_county"`
	Town       string    `gorm:"size:50;not null" json:"town"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`

	Farmer *Farmer `gorm:"foreignKey:UserID" json:"farmer,omitempty"`
	Vendor *Vendor `gorm:"foreignKey:UserID" json:"vendor,omitempty"`
}

func (u *User) IsFarmer() bool { return u != nil && u.Role.IsFarmer() }
func (u *User) IsVendor() bool { return u != nil && u.Role.IsVendor() }

// Profile returns the role's profile, or nil when it was not loaded.
func (u *User) Profile() Profile {
	switch {
	case u.IsFarmer() && u.Farmer != nil:
		return u.Farmer
	case u.IsVendor() && u.Vendor != nil:
		return u.Vendor
	}
	return nil
}
