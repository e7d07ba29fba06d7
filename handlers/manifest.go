package handlers

import (
	"net/http"
	"time"

	"courier-api/apperrors"
	"courier-api/config"
	"courier-api/middleware"
	"courier-api/models"
	"courier-api/notify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListAvailableShipments returns shipments at the actor's branch that are
// ready to ride a manifest to the given destination: in custody, still
// AT_ORIGIN_BRANCH, and not already claimed by another manifest.
func ListAvailableShipments(c *gin.Context) {
	actor := middleware.GetActor(c)
	page, limit, offset := pagination(c)

	destID := c.Query("destination_branch_id")
	if destID == "" {
		fail(c, apperrors.Validation("destination_branch_id query parameter is required"))
		return
	}

	query := config.DB.Model(&models.Shipment{}).
		Where("current_branch_id = ? AND destination_branch_id = ? AND status = ? AND manifest_id IS NULL",
			*actor.BranchID, destID, models.StatusAtOriginBranch)

	var total int64
	query.Count(&total)

	var shipments []models.Shipment
	query.Order("created_at asc").Limit(limit).Offset(offset).Find(&shipments)

	c.JSON(http.StatusOK, gin.H{
		"page":      page,
		"limit":     limit,
		"total":     total,
		"shipments": shipments,
	})
}

type DispatchRequest struct {
	ToBranchID    uint   `json:"to_branch_id" binding:"required"`
	ShipmentIDs   []uint `json:"shipment_ids" binding:"required,min=1"`
	VehicleNumber string `json:"vehicle_number"`
	DriverName    string `json:"driver_name"`
	Notes         string `json:"notes"`
}

// DispatchManifest batches ready shipments into a new IN_TRANSIT manifest.
// The availability predicate is re-checked at dispatch time with a single
// conditional UPDATE; if any shipment was claimed or moved in the meantime
// the whole operation rolls back — no partial manifest ever exists.
func DispatchManifest(c *gin.Context) {
	actor := middleware.GetActor(c)

	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fromID := *actor.BranchID
	if req.ToBranchID == fromID {
		fail(c, apperrors.Validation("Manifests model inter-branch transfer only: destination must differ from your branch"))
		return
	}

	var toBranch models.Branch
	if err := config.DB.First(&toBranch, req.ToBranchID).Error; err != nil {
		fail(c, apperrors.Validation("Destination branch %d does not exist", req.ToBranchID))
		return
	}

	// Every listed shipment must be destined for the manifest's destination.
	// A mixed set is a caller error, not a partial acceptance.
	var shipments []models.Shipment
	if err := config.DB.Where("id IN ?", req.ShipmentIDs).Find(&shipments).Error; err != nil {
		fail(c, err)
		return
	}
	if len(shipments) != len(req.ShipmentIDs) {
		fail(c, apperrors.NotFound("One or more shipments do not exist"))
		return
	}
	for _, s := range shipments {
		if s.DestinationBranchID != req.ToBranchID {
			fail(c, apperrors.Validation(
				"Shipment %s is destined for branch %d, not branch %d: remove it from the manifest",
				s.TrackingID, s.DestinationBranchID, req.ToBranchID))
			return
		}
	}

	manifest := models.Manifest{
		Code:           newManifestCode(),
		FromBranchID:   fromID,
		ToBranchID:     req.ToBranchID,
		Status:         models.ManifestInTransit,
		VehicleNumber:  req.VehicleNumber,
		DriverName:     req.DriverName,
		Notes:          req.Notes,
		DispatchedAt:   time.Now(),
		DispatchedByID: actor.UserID,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&manifest).Error; err != nil {
			return err
		}

		// Optimistic guard: the UPDATE only touches rows still satisfying
		// the availability predicate. A count mismatch means another
		// dispatch won the race, and the transaction rolls back.
		res := tx.Model(&models.Shipment{}).
			Where("id IN ? AND current_branch_id = ? AND destination_branch_id = ? AND status = ? AND manifest_id IS NULL",
				req.ShipmentIDs, fromID, req.ToBranchID, models.StatusAtOriginBranch).
			Updates(map[string]interface{}{
				"status":      models.StatusInTransitToDestination,
				"manifest_id": manifest.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(req.ShipmentIDs)) {
			return apperrors.Conflict(
				"%d of %d shipments are no longer available for dispatch (already manifested or moved)",
				int64(len(req.ShipmentIDs))-res.RowsAffected, len(req.ShipmentIDs))
		}

		for _, s := range shipments {
			if err := tx.Create(&models.ShipmentStatusHistory{
				ShipmentID: s.ID,
				FromStatus: models.StatusAtOriginBranch,
				ToStatus:   models.StatusInTransitToDestination,
				ChangedBy:  actor.UserID,
				Note:       "Dispatched on manifest " + manifest.Code,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	config.DB.Preload("Shipments").Preload("ToBranch").First(&manifest, manifest.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Manifest dispatched",
		"manifest": manifest,
	})
}

// ListManifests returns the branch's inbound and outbound manifests
func ListManifests(c *gin.Context) {
	actor := middleware.GetActor(c)
	page, limit, offset := pagination(c)

	query := config.DB.Model(&models.Manifest{}).
		Preload("FromBranch").Preload("ToBranch").
		Where("from_branch_id = ? OR to_branch_id = ?", *actor.BranchID, *actor.BranchID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if direction := c.Query("direction"); direction == "inbound" {
		query = query.Where("to_branch_id = ?", *actor.BranchID)
	} else if direction == "outbound" {
		query = query.Where("from_branch_id = ?", *actor.BranchID)
	}

	var total int64
	query.Count(&total)

	var manifests []models.Manifest
	query.Order("dispatched_at desc").Limit(limit).Offset(offset).Find(&manifests)

	c.JSON(http.StatusOK, gin.H{
		"page":      page,
		"limit":     limit,
		"total":     total,
		"manifests": manifests,
	})
}

// GetManifest returns one manifest with its shipments
func GetManifest(c *gin.Context) {
	actor := middleware.GetActor(c)

	var manifest models.Manifest
	if err := config.DB.
		Preload("FromBranch").Preload("ToBranch").Preload("Shipments").
		First(&manifest, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Manifest not found"))
		return
	}
	if !actor.SameBranch(manifest.FromBranchID) && !actor.SameBranch(manifest.ToBranchID) {
		fail(c, apperrors.Forbidden("This manifest does not involve your branch"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"manifest": manifest, "shipment_count": len(manifest.Shipments)})
}

// ReceiveManifest closes a manifest on arrival at the destination branch:
// COMPLETED, receivedAt stamped, every shipment lands AT_DESTINATION_BRANCH
// with custody transferred. Receiving twice fails the idempotency guard
// instead of re-applying side effects.
func ReceiveManifest(c *gin.Context) {
	actor := middleware.GetActor(c)

	var manifest models.Manifest
	if err := config.DB.First(&manifest, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Manifest not found"))
		return
	}
	if !actor.SameBranch(manifest.ToBranchID) {
		fail(c, apperrors.Forbidden("Only the destination branch can receive this manifest"))
		return
	}
	if manifest.Status == models.ManifestCompleted {
		fail(c, apperrors.AlreadyCompleted("Manifest %s has already been received", manifest.Code))
		return
	}

	now := time.Now()
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		// Conditional update doubles as the idempotency guard under
		// concurrent receive calls.
		res := tx.Model(&models.Manifest{}).
			Where("id = ? AND status = ?", manifest.ID, models.ManifestInTransit).
			Updates(map[string]interface{}{
				"status":         models.ManifestCompleted,
				"received_at":    now,
				"received_by_id": actor.UserID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperrors.AlreadyCompleted("Manifest %s has already been received", manifest.Code)
		}

		var shipments []models.Shipment
		if err := tx.Where("manifest_id = ?", manifest.ID).Find(&shipments).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Shipment{}).
			Where("manifest_id = ? AND status = ?", manifest.ID, models.StatusInTransitToDestination).
			Updates(map[string]interface{}{
				"status":            models.StatusAtDestinationBranch,
				"current_branch_id": manifest.ToBranchID,
			}).Error; err != nil {
			return err
		}

		for _, s := range shipments {
			if err := tx.Create(&models.ShipmentStatusHistory{
				ShipmentID: s.ID,
				FromStatus: models.StatusInTransitToDestination,
				ToStatus:   models.StatusAtDestinationBranch,
				ChangedBy:  actor.UserID,
				Note:       "Received at destination on manifest " + manifest.Code,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	notify.Send(manifest.DispatchedByID, notify.EventManifestReceived,
		"Manifest "+manifest.Code+" received at destination", nil)

	config.DB.Preload("Shipments").First(&manifest, manifest.ID)
	c.JSON(http.StatusOK, gin.H{
		"message":  "Manifest received",
		"manifest": manifest,
	})
}
