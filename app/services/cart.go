package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/repositories"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
)

// CartLine is one product in a cart. Carts live in the session.
type CartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Cart holds at most one line per product.
type Cart []CartLine

// Add increments the line for productID, creating it when missing.
func (c Cart) Add(productID uint, qty int) Cart {
	for i := range c {
		if c[i].ProductID == productID {
			c[i].Quantity += qty
			return c
		}
	}
	return append(c, CartLine{ProductID: productID, Quantity: qty})
}

// Remove drops the line for productID.
func (c Cart) Remove(productID uint) Cart {
	out := c[:0]
	for _, l := range c {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}

// CartItem is a line with current product data.
type CartItem struct {
	Product   models.Product  `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartSummary is the cart as shown to the vendor.
type CartSummary struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// CheckoutView is what the checkout form needs.
type CheckoutView struct {
	Cart           CartSummary       `json:"cart"`
	Address        string            `json:"address"`
	PaymentMethods []requests.Option `json:"payment_methods"`
}

// AddToCart adds a product that exists to cart.
func (s *OrderService) AddToCart(ctx context.Context, cart Cart, req requests.CartItemRequest) (Cart, error) {
	if _, err := s.repos().Products.FindByID(ctx, req.ProductID); err != nil {
		return cart, notFound("find product", err, apperr.NotFound(MsgProductNotFound))
	}
	return cart.Add(req.ProductID, req.Qty()), nil
}

// Summarize prices the cart at current product prices. Lines whose
// product no longer exists are left out.
func (s *OrderService) Summarize(ctx context.Context, cart Cart) (CartSummary, error) {
	out := CartSummary{Items: []CartItem{}, Total: decimal.Zero}
	if len(cart) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(cart))
	for _, l := range cart {
		ids = append(ids, l.ProductID)
	}
	products, err := s.repos().Products.FindByIDs(ctx, ids)
	if err != nil {
		return out, classify("load cart products", err)
	}

	for _, l := range cart {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		line := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		out.Items = append(out.Items, CartItem{Product: p, Quantity: l.Quantity, LineTotal: line})
		out.Total = out.Total.Add(line)
	}
	return out, nil
}

// CheckoutSummary returns the cart and the vendor's default address.
func (s *OrderService) CheckoutSummary(ctx context.Context, userID uint, cart Cart) (*CheckoutView, error) {
	vendor, err := vendorFor(ctx, s.repos().Profiles, userID)
	if err != nil {
		return nil, err
	}
	summary, err := s.Summarize(ctx, cart)
	if err != nil {
		return nil, err
	}
	return &CheckoutView{Cart: summary, Address: vendor.ShippingAddress, PaymentMethods: requests.PaymentMethods}, nil
}

// takeStock re-reads the product and takes qty units of it, failing with a
// field error when stock is short.
func takeStock(ctx context.Context, repos *repositories.Set, productID uint, qty int, field string) (*models.Product, error) {
	p, err := repos.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound("find product", err, apperr.NotFound(MsgProductNotFound))
	}
	ok, err := repos.Products.DecrementStock(ctx, p.ID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Field(field, stockMessage(p))
	}
	return p, nil
}
