// Package controllers adapts HTTP requests to service calls. Every handler
// ends in exactly one ctx.Respond or ctx.Fail.
package controllers

import (
	"io"

	"github.com/shashiranjanraj/farmlink/app/services"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
)

// cartKey is the session key holding the vendor's cart.
const cartKey = "cart"

func loadCart(x *ctx.Context) services.Cart {
	var cart services.Cart
	if s := x.Session(); s != nil {
		s.Get(cartKey, &cart)
	}
	return cart
}

func saveCart(x *ctx.Context, cart services.Cart) {
	s := x.Session()
	if s == nil {
		return
	}
	if len(cart) == 0 {
		s.Delete(cartKey)
		return
	}
	s.Set(cartKey, cart)
}

// upload returns the named multipart file as a reader and a closer, or
// nils when the request carries none.
func upload(x *ctx.Context, name string) (io.Reader, func()) {
	f, _ := x.FormFile(name)
	if f == nil {
		return nil, func() {}
	}
	return f, func() { f.Close() }
}
