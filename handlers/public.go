package handlers

import (
	"net/http"

	"courier-api/apperrors"
	"courier-api/config"
	"courier-api/models"
	"courier-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TrackShipment is the public tracking view: status and movement history by
// tracking ID, with party phone numbers withheld.
func TrackShipment(c *gin.Context) {
	trackingID := c.Param("trackingId")

	var shipment models.Shipment
	if err := config.DB.
		Preload("OriginBranch").Preload("DestinationBranch").Preload("CurrentBranch").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }).
		Where("tracking_id = ?", trackingID).
		First(&shipment).Error; err != nil {
		fail(c, apperrors.NotFound("No shipment found for tracking ID %s", trackingID))
		return
	}

	events := make([]gin.H, 0, len(shipment.StatusHistory))
	for _, h := range shipment.StatusHistory {
		events = append(events, gin.H{
			"status":    h.ToStatus,
			"timestamp": h.CreatedAt,
			"note":      h.Note,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"tracking_id":        shipment.TrackingID,
		"status":             shipment.Status,
		"origin_branch":      shipment.OriginBranch.Name,
		"destination_branch": shipment.DestinationBranch.Name,
		"current_branch":     shipment.CurrentBranch.Name,
		"recipient_name":     shipment.Recipient.Name,
		"history":            events,
	})
}

// GetStateMachineInfo returns the full shipment state machine for docs
func GetStateMachineInfo(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	info := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		info = append(info, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": []models.ShipmentStatus{models.StatusDelivered, models.StatusFailed},
		"description":     "Shipment Lifecycle State Machine",
	})
}
