package controllers

import (
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
)

const msgProfileUpdated = "Your profile has been updated!"

type ProfileController struct {
	profiles *services.ProfileService
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (c *ProfileController) Show(x *ctx.Context) {
	u, err := c.profiles.Profile(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: u})
}

func (c *ProfileController) Farmer(x *ctx.Context) {
	f, err := c.profiles.FarmerProfile(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: f})
}

func (c *ProfileController) UpdateFarmer(x *ctx.Context) {
	var req requests.FarmerProfileRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	f, err := c.profiles.UpdateFarmerProfile(x.Context(), x.UserID(), req)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Message: msgProfileUpdated, Data: f, Redirect: "/farmer/profile"})
}

func (c *ProfileController) Vendor(x *ctx.Context) {
	v, err := c.profiles.VendorProfile(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: v})
}

func (c *ProfileController) UpdateVendor(x *ctx.Context) {
	var req requests.VendorProfileRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	v, err := c.profiles.UpdateVendorProfile(x.Context(), x.UserID(), req)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Message: msgProfileUpdated, Data: v, Redirect: "/vendor/profile"})
}
