package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a listing owned by a farmer profile.
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	FarmerID          uint            `gorm:"index;not null" json:"farmer_id"`
	Name              string          `gorm:"size:100;not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	QuantityAvailable int             `gorm:"not null;default:0" json:"quantity_available"`
	ImageFile         string          `gorm:"size:64" json:"image_file,omitempty"`
	DateAdded         time.Time       `gorm:"autoCreateTime" json:"date_added"`

	Farmer *Farmer `json:"farmer,omitempty"`
}
