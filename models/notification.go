package models

import "time"

// Notification is the backing row for the dashboard badge poller. Delivery
// transport (push, service worker) is outside this service; rows here are
// only read back over the polling endpoint.
type Notification struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	Event      string    `json:"event" gorm:"not null"`
	Message    string    `json:"message"`
	ShipmentID *uint     `json:"shipment_id"`
	Read       bool      `json:"read" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
}
