package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/farmlink/pkg/ctx"
)

type HomeController struct{}

func NewHomeController() *HomeController { return &HomeController{} }

// Home is the landing page. Pending flashes ride along in the envelope.
func (c *HomeController) Home(x *ctx.Context) {
	x.Respond(ctx.Result{Data: map[string]any{
		"name":      "FarmLink",
		"logged_in": x.UserID() != 0,
		"role":      x.Role(),
	}})
}

// Health reports liveness.
func (c *HomeController) Health(x *ctx.Context) {
	x.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
