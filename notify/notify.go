package notify

import (
	"log"

	"courier-api/config"
	"courier-api/models"
)

// Events emitted by the shipment workflow.
const (
	EventShipmentAssigned  = "shipment.assigned"
	EventShipmentDelivered = "shipment.delivered"
	EventShipmentFailed    = "shipment.failed"
	EventManifestReceived  = "manifest.received"
)

// Send records a notification for a user. Fire-and-forget: the caller's
// operation never fails because a notification row could not be written.
// Push/service-worker delivery is an external concern; the dashboard polls
// these rows for its badge.
func Send(userID uint, event, message string, shipmentID *uint) {
	n := models.Notification{
		UserID:     userID,
		Event:      event,
		Message:    message,
		ShipmentID: shipmentID,
	}
	if err := config.DB.Create(&n).Error; err != nil {
		log.Printf("notify: failed to record %s for user %d: %v", event, userID, err)
	}
}
