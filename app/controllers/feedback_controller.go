package controllers

import (
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
)

type FeedbackController struct {
	feedback *services.FeedbackService
}

func NewFeedbackController(feedback *services.FeedbackService) *FeedbackController {
	return &FeedbackController{feedback: feedback}
}

func (c *FeedbackController) Form(x *ctx.Context) {
	p, err := c.feedback.Target(x.Context(), x.UserID(), x.ParamUint("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: map[string]any{"product": p}})
}

func (c *FeedbackController) Submit(x *ctx.Context) {
	var req requests.FeedbackRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	productID := x.ParamUint("id")
	fb, err := c.feedback.Submit(x.Context(), x.UserID(), productID, req)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{
		Status:   http.StatusCreated,
		Message:  "Your feedback has been submitted!",
		Data:     fb,
		Redirect: fmt.Sprintf("/product/%d", productID),
	})
}
