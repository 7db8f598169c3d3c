package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is an order's lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

// ParseOrderStatus accepts the canonical names only.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("models: unknown order status %q", s)
}

// CanTransition reports whether s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a vendor's purchase of one or more products.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Reference       string          `gorm:"size:32;uniqueIndex;not null" json:"reference"`
	VendorID        uint            `gorm:"index;not null" json:"vendor_id"`
	Status          OrderStatus     `gorm:"size:20;not null;default:Pending" json:"status"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	ShippingAddress string          `gorm:"size:200" json:"shipping_address"`
	PaymentMethod   string          `gorm:"size:20" json:"payment_method,omitempty"`
	DateOrdered     time.Time       `gorm:"autoCreateTime" json:"date_ordered"`

	Vendor *Vendor     `json:"vendor,omitempty"`
	Items  []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem is one product line. UnitPrice is the price at order time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`

	Product *Product `json:"product,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
