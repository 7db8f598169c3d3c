// Package requests holds the validated input of every operation.
//
// Field rules live in `validate` tags; checks that need the database
// (username and email uniqueness) run in the services.
package requests

import (
	"strings"

	"github.com/shashiranjanraj/farmlink/app/models"
)

// Counties offered at registration.
var Counties = []Option{
	{Value: "nairobi", Label: "Nairobi"},
	{Value: "kiambu", Label: "Kiambu"},
	{Value: "machakos", Label: "Machakos"},
}

// RoleOptions offered at registration.
var RoleOptions = []Option{
	{Value: string(models.RoleFarmer), Label: "Farmer"},
	{Value: string(models.RoleVendor), Label: "Vendor"},
}

// Option is one select choice in form metadata.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=password"`
	Role            string `json:"role" validate:"required,in=farmer|vendor"`
	County          string `json:"county" validate:"required,in=nairobi|kiambu|machakos"`
	SubCounty       string `json:"sub_county" validate:"required,max=50"`
	Town            string `json:"town" validate:"required,max=50"`

	FarmName string `json:"farm_name" validate:"required_if=role:farmer,min=1,max=100"`
	Location string `json:"location" validate:"required_if=role:farmer,min=1,max=100"`

	FullName        string `json:"full_name" validate:"required_if=role:vendor,min=2,max=100"`
	ShippingAddress string `json:"shipping_address" validate:"required_if=role:vendor,min=10,max=200"`
}

// Normalize trims the free-text fields and lowercases the email.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.SubCounty = strings.TrimSpace(r.SubCounty)
	r.Town = strings.TrimSpace(r.Town)
	r.FarmName = strings.TrimSpace(r.FarmName)
	r.Location = strings.TrimSpace(r.Location)
	r.FullName = strings.TrimSpace(r.FullName)
	r.ShippingAddress = strings.TrimSpace(r.ShippingAddress)
}

// Profile builds the profile variant for the chosen role. It returns nil
// for a role that did not pass validation.
func (r *RegisterRequest) Profile() models.Profile {
	switch models.Role(r.Role) {
	case models.RoleFarmer:
		return &models.Farmer{FarmName: r.FarmName, Location: r.Location}
	case models.RoleVendor:
		return &models.Vendor{FullName: r.FullName, ShippingAddress: r.ShippingAddress}
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=password"`
}
