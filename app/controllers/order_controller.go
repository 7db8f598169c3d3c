package controllers

import (
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (c *OrderController) Place(x *ctx.Context) {
	var req requests.OrderRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	productID := x.ParamUint("id")
	order, err := c.orders.PlaceOrder(x.Context(), x.UserID(), productID, req.Qty())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{
		Status:   http.StatusCreated,
		Message:  fmt.Sprintf("Order %s has been placed!", order.Reference),
		Data:     order,
		Redirect: fmt.Sprintf("/product/%d", productID),
	})
}

func (c *OrderController) FarmerOrders(x *ctx.Context) {
	res, err := c.orders.FarmerOrders(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	if !res.HasProducts {
		x.Respond(ctx.Result{Message: services.MsgNoProductsListed, Category: "info", Data: res, Redirect: "/farmer/dashboard"})
		return
	}
	x.Respond(ctx.Result{Data: res})
}

func (c *OrderController) Advance(x *ctx.Context) {
	var req requests.OrderStatusRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	order, err := c.orders.AdvanceOrder(x.Context(), x.UserID(), x.ParamUint("id"), req)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{
		Message:  fmt.Sprintf("Order %s is now %s.", order.Reference, order.Status),
		Data:     order,
		Redirect: "/farmer/orders",
	})
}

func (c *OrderController) Cancel(x *ctx.Context) {
	order, err := c.orders.CancelOrder(x.Context(), x.UserID(), x.ParamUint("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{
		Message:  fmt.Sprintf("Order %s has been cancelled.", order.Reference),
		Category: "info",
		Data:     order,
		Redirect: "/vendor/dashboard",
	})
}

func (c *OrderController) VendorDashboard(x *ctx.Context) {
	dash, err := c.orders.VendorDashboard(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: dash})
}

func (c *OrderController) Cart(x *ctx.Context) {
	summary, err := c.orders.Summarize(x.Context(), loadCart(x))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: summary})
}

func (c *OrderController) AddToCart(x *ctx.Context) {
	var req requests.CartItemRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	cart, err := c.orders.AddToCart(x.Context(), loadCart(x), req)
	if err != nil {
		x.Fail(err)
		return
	}
	saveCart(x, cart)
	summary, err := c.orders.Summarize(x.Context(), cart)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Message: "Added to your cart.", Data: summary})
}

func (c *OrderController) RemoveFromCart(x *ctx.Context) {
	cart := loadCart(x).Remove(x.ParamUint("id"))
	saveCart(x, cart)
	summary, err := c.orders.Summarize(x.Context(), cart)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Message: "Removed from your cart.", Category: "info", Data: summary})
}

func (c *OrderController) CheckoutForm(x *ctx.Context) {
	view, err := c.orders.CheckoutSummary(x.Context(), x.UserID(), loadCart(x))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Respond(ctx.Result{Data: view})
}

// Checkout places the cart as one order and empties it.
func (c *OrderController) Checkout(x *ctx.Context) {
	var req requests.CheckoutRequest
	if err := x.Bind(&req); err != nil {
		x.Fail(err)
		return
	}
	order, err := c.orders.Checkout(x.Context(), x.UserID(), loadCart(x), req)
	if err != nil {
		x.Fail(err)
		return
	}
	saveCart(x, nil)
	x.Respond(ctx.Result{
		Status:   http.StatusCreated,
		Message:  "Your order has been placed!",
		Data:     order,
		Redirect: "/",
	})
}
