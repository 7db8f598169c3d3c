// Package models holds the GORM entities.
//
// Ownership always points at profile rows: products.farmer_id is a
// farmers.id and orders.vendor_id a vendors.id, never a users.id.
package models

// All lists every entity in creation order (parents first).
func All() []any {
	return []any{&User{}, &Farmer{}, &Vendor{}, &Product{}, &Order{}, &OrderItem{}, &Feedback{}}
}
