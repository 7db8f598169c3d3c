// Package routes binds URLs to controllers.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/farmlink/app/controllers"
	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
	"github.com/shashiranjanraj/farmlink/pkg/middleware"
	"github.com/shashiranjanraj/farmlink/pkg/router"
)

// Handlers is everything the route table points at. Optional handlers
// that are nil are not mounted.
type Handlers struct {
	Home     *controllers.HomeController
	Auth     *controllers.AuthController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Feedback *controllers.FeedbackController
	Profiles *controllers.ProfileController

	GraphQL http.Handler
	Feed    http.Handler
	Events  http.Handler
	Metrics http.Handler
	// Media serves stored images under MediaPrefix.
	Media       http.Handler
	MediaPrefix string
}

var (
	farmer   = middleware.RequireRole(models.RoleFarmer.String())
	vendor   = middleware.RequireRole(models.RoleVendor.String())
	loggedIn = middleware.RequireLogin
)

// Register mounts the whole route table on r.
func Register(r *router.Router, h Handlers) {
	w := ctx.Wrap

	r.Get("/", "home", w(h.Home.Home))
	r.Get("/home", "home.alias", w(h.Home.Home))
	r.Get("/health", "health", w(h.Home.Health))

	// auth
	r.Get("/register", "register.form", w(h.Auth.RegisterForm), middleware.Guest)
	r.Post("/register", "register", w(h.Auth.Register), middleware.Guest)
	r.Get("/login", "login.form", w(h.Auth.LoginForm), middleware.Guest)
	r.Post("/login", "login", w(h.Auth.Login), middleware.Guest)
	r.Get("/logout", "logout", w(h.Auth.Logout), loggedIn)
	r.Post("/reset_password", "password.email", w(h.Auth.RequestReset))
	r.Post("/reset_password/{token}", "password.reset", w(h.Auth.ResetPassword))

	// catalogue
	r.Get("/products", "products.index", w(h.Products.List))
	r.Get("/product/new", "products.form", w(h.Products.Form), farmer)
	r.Post("/product/new", "products.store", w(h.Products.Create), farmer)
	r.Get("/product/{id}", "products.show", w(h.Products.Show))
	r.Get("/farmer/{id}/public", "farmers.show", w(h.Products.Farmer))
	r.Get("/my-products", "products.mine", w(h.Products.Mine), farmer)

	f := r.Group("/farmer", loggedIn)
	f.Get("/dashboard", "farmer.dashboard", w(h.Products.Dashboard), farmer)
	f.Get("/add_product", "farmer.add_product.form", w(h.Products.Form))
	f.Post("/add_product", "farmer.add_product", w(h.Products.AddFromDashboard))
	f.Get("/orders", "farmer.orders", w(h.Orders.FarmerOrders))
	f.Post("/orders/{id}/status", "farmer.orders.status", w(h.Orders.Advance), farmer)
	f.Get("/product/{id}", "farmer.product", w(h.Products.Owned))
	f.Get("/profile", "farmer.profile", w(h.Profiles.Farmer), farmer)
	f.Post("/profile", "farmer.profile.update", w(h.Profiles.UpdateFarmer), farmer)

	v := r.Group("/vendor", vendor)
	v.Get("/dashboard", "vendor.dashboard", w(h.Orders.VendorDashboard))
	v.Get("/profile", "vendor.profile", w(h.Profiles.Vendor))
	v.Post("/profile", "vendor.profile.update", w(h.Profiles.UpdateVendor))
	v.Post("/orders/{id}/cancel", "vendor.orders.cancel", w(h.Orders.Cancel))

	r.Get("/product/{id}/feedback", "feedback.form", w(h.Feedback.Form), vendor)
	r.Post("/product/{id}/feedback", "feedback.store", w(h.Feedback.Submit), vendor)
	r.Post("/product/{id}/order", "orders.store", w(h.Orders.Place), vendor)

	// cart
	r.Get("/cart", "cart", w(h.Orders.Cart), loggedIn)
	r.Post("/cart/items", "cart.add", w(h.Orders.AddToCart), vendor)
	r.Delete("/cart/items/{id}", "cart.remove", w(h.Orders.RemoveFromCart), vendor)
	r.Get("/checkout", "checkout.form", w(h.Orders.CheckoutForm), loggedIn)
	r.Post("/checkout", "checkout", w(h.Orders.Checkout), loggedIn)

	r.Get("/profile", "profile", w(h.Profiles.Show), loggedIn)

	if h.GraphQL != nil {
		r.Post("/graphql", "graphql", h.GraphQL.ServeHTTP)
	}
	if h.Feed != nil {
		r.Get("/ws/feed", "feed", h.Feed.ServeHTTP)
	}
	if h.Events != nil {
		r.Get("/events/feed", "events.feed", h.Events.ServeHTTP)
	}
	if h.Metrics != nil {
		r.Get("/metrics", "metrics", h.Metrics.ServeHTTP)
	}
	if h.Media != nil && h.MediaPrefix != "" {
		r.Mount(h.MediaPrefix, http.StripPrefix(h.MediaPrefix, h.Media))
	}

	r.NotFound(w(func(x *ctx.Context) {
		x.Respond(ctx.Result{Status: http.StatusNotFound, Message: "Page not found."})
	}))
	r.MethodNotAllowed(w(func(x *ctx.Context) {
		x.Respond(ctx.Result{Status: http.StatusMethodNotAllowed, Message: "Method not allowed."})
	}))
}
