package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func (c *ProductController) List(x *ctx.Context) {
	page, err := c.products.List(x.Context(), x.QueryInt("page", 1))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: page})
}

func (c *ProductController) Show(x *ctx.Context) {
	detail, err := c.products.Get(x.Context(), x.ParamUint("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: detail})
}

// Form describes the product form fields.
func (c *ProductController) Form(x *ctx.Context) {
	x.Respond(ctx.Result{Data: map[string]any{
		"fields": []string{"name", "description", "price", "quantity_available", "image"},
	}})
}

// Create lists a product and returns to the catalogue.
func (c *ProductController) Create(x *ctx.Context) {
	c.create(x, "Your product has been added!", "/products")
}

// AddFromDashboard lists a product and returns to the farmer dashboard.
func (c *ProductController) AddFromDashboard(x *ctx.Context) {
	c.create(x, "Product added successfully!", "/farmer/dashboard")
}

func (c *ProductController) create(x *ctx.Context, message, redirect string) {
	var req requests.ProductRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	image, done := upload(x, "image")
	defer done()

	p, err := c.products.Create(x.Context(), x.UserID(), req, image)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{
		Status:   http.StatusCreated,
		Message:  message,
		Data:     services.ProductDetail{Product: p, ImageURL: c.products.ImageURL(p)},
		Redirect: redirect,
	})
}

func (c *ProductController) Mine(x *ctx.Context) {
	products, err := c.products.ListMine(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: products})
}

func (c *ProductController) Owned(x *ctx.Context) {
	detail, err := c.products.GetOwned(x.Context(), x.UserID(), x.ParamUint("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: detail})
}

func (c *ProductController) Dashboard(x *ctx.Context) {
	dash, err := c.products.Dashboard(x.Context(), x.UserID())
	if errors.Is(err, services.ErrNoFarmerProfile) {
		x.Respond(ctx.Result{Message: services.MsgNoFarmerProfile, Category: "warning", Redirect: "/"})
		return
	}
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: dash})
}

func (c *ProductController) Farmer(x *ctx.Context) {
	view, err := c.products.Farmer(x.Context(), x.ParamUint("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: view})
}
