package requests

import "github.com/shopspring/decimal"

// MaxPrice fits the decimal(12,2) price column.
const MaxPrice = 9999999999.99

type ProductRequest struct {
	Name              string   `json:"name" validate:"required,min=2,max=100"`
	Description       string   `json:"description" validate:"required,min=10"`
	Price             *float64 `json:"price" validate:"required,gte=0,lte=9999999999.99"`
	QuantityAvailable *int     `json:"quantity_available" validate:"required,min=1"`
}

// PriceDecimal returns the price rounded to cents.
func (r *ProductRequest) PriceDecimal() decimal.Decimal {
	if r.Price == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*r.Price).Round(2)
}

// Quantity returns the requested stock, 0 when absent.
func (r *ProductRequest) Quantity() int {
	if r.QuantityAvailable == nil {
		return 0
	}
	return *r.QuantityAvailable
}
