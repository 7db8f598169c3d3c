package requests

// PaymentMethods accepted at checkout. Nothing is charged.
var PaymentMethods = []Option{
	{Value: "mpesa", Label: "M-Pesa"},
	{Value: "cash", Label: "Cash on delivery"},
	{Value: "card", Label: "Card"},
}

// OrderRequest places a single-product order; quantity defaults to 1.
type OrderRequest struct {
	Quantity *int `json:"quantity" validate:"nullable,min=1"`
}

func (r *OrderRequest) Qty() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type CartItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  *int `json:"quantity" validate:"nullable,min=1"`
}

func (r *CartItemRequest) Qty() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type CheckoutRequest struct {
	Address       string `json:"address" validate:"required,min=10,max=200"`
	PaymentMethod string `json:"payment_method" validate:"required,in=mpesa|cash|card"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required,in=Shipped|Delivered"`
}
