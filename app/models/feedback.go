package models

import "time"

// Feedback is a vendor's rating of a farmer, optionally about one product.
type Feedback struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	VendorID      uint      `gorm:"index;not null" json:"vendor_id"`
	FarmerID      uint      `gorm:"index;not null" json:"farmer_id"`
	ProductID     *uint     `gorm:"index" json:"product_id"`
	Rating        int       `gorm:"not null" json:"rating"`
	Comment       string    `gorm:"size:200" json:"comment"`
	DateSubmitted time.Time `gorm:"autoCreateTime" json:"date_submitted"`
}

// TableName is feedbacks, not feedback.
func (Feedback) TableName() string { return "feedbacks" }
