package handlers

import (
	"net/http"

	"courier-api/apperrors"
	"courier-api/config"
	"courier-api/middleware"
	"courier-api/models"
	"courier-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetMyDeliveries returns shipments assigned to the logged-in delivery staff
func GetMyDeliveries(c *gin.Context) {
	actor := middleware.GetActor(c)

	query := config.DB.Preload("DestinationBranch").
		Where("assigned_to_id = ?", actor.UserID)
	if c.Query("active") == "true" {
		query = query.Where("status IN ?",
			[]models.ShipmentStatus{models.StatusAssigned, models.StatusOutForDelivery})
	}

	var shipments []models.Shipment
	query.Order("updated_at desc").Find(&shipments)
	c.JSON(http.StatusOK, gin.H{"count": len(shipments), "shipments": shipments})
}

// UpdateMyDeliveryStatus lets delivery staff progress their own assignments:
// out for delivery, delivered with proof, or failed with a reason. Nothing
// else, and never someone else's shipment.
func UpdateMyDeliveryStatus(c *gin.Context) {
	actor := middleware.GetActor(c)

	var shipment models.Shipment
	if err := config.DB.First(&shipment, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Shipment not found"))
		return
	}
	if shipment.AssignedToID == nil || *shipment.AssignedToID != actor.UserID {
		fail(c, apperrors.Forbidden("You are not the assigned staff for this shipment"))
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == models.StatusAssigned {
		fail(c, apperrors.Forbidden("Delivery staff cannot reassign shipments"))
		return
	}

	if err := applyStatusChange(&shipment, req, actor, statemachine.ActorCourier); err != nil {
		fail(c, err)
		return
	}
	notifyStatusChange(&shipment)

	c.JSON(http.StatusOK, gin.H{
		"message":        "Delivery status updated",
		"shipment_id":    shipment.ID,
		"tracking_id":    shipment.TrackingID,
		"current_status": shipment.Status,
	})
}
