package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (c *AuthController) RegisterForm(x *ctx.Context) {
	x.Respond(ctx.Result{Data: map[string]any{
		"counties": requests.Counties,
		"roles":    requests.RoleOptions,
	}})
}

func (c *AuthController) Register(x *ctx.Context) {
	var req requests.RegisterRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	user, err := c.auth.Register(x.Context(), req)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{
		Status:   http.StatusCreated,
		Message:  "Account created successfully! You can now log in.",
		Data:     user,
		Redirect: "/login",
	})
}

func (c *AuthController) LoginForm(x *ctx.Context) {
	x.Respond(ctx.Result{Data: map[string]any{"fields": []string{"email", "password"}}})
}

// Login starts a fresh session holding the user id and role, then sends
// the user to their role's home.
func (c *AuthController) Login(x *ctx.Context) {
	var req requests.LoginRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	user, err := c.auth.Login(x.Context(), req)
	if err != nil {
		x.Fail(err)
		return
	}

	if s := x.Session(); s != nil {
		s.Regenerate()
		s.Set(ctx.KeyUserID, user.ID)
		s.Set(ctx.KeyRole, user.Role.String())
	}
	home := models.HomeFor(user.Role)
	if home == "/" {
		logger.WithCtx(x.Context()).Warn("login with unexpected role", "user_id", user.ID, "role", user.Role)
	}
	x.Respond(ctx.Result{Message: "You have been logged in!", Data: user, Redirect: home})
}

func (c *AuthController) Logout(x *ctx.Context) {
	if s := x.Session(); s != nil {
		s.Invalidate()
	}
	x.Respond(ctx.Result{Message: "You have been logged out!", Category: "info", Redirect: "/"})
}

func (c *AuthController) RequestReset(x *ctx.Context) {
	var req requests.ResetRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	if err := c.auth.RequestReset(x.Context(), req); err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Message: services.MsgResetSent, Category: "info", Redirect: "/login"})
}

func (c *AuthController) ResetPassword(x *ctx.Context) {
	var req requests.ResetPasswordRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	if err := c.auth.ResetPassword(x.Context(), x.Param("token"), req); err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Message: "Your password has been updated! You can now log in.", Redirect: "/login"})
}
