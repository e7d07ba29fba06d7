package handlers

import (
	"net/http"

	"courier-api/apperrors"
	"courier-api/config"
	"courier-api/middleware"
	"courier-api/models"
	"courier-api/notify"
	"courier-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PartyRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Address string `json:"address" binding:"required,min=5,max=255"`
	Phone   string `json:"phone" binding:"required"`
}

type CreateShipmentRequest struct {
	Sender              PartyRequest `json:"sender" binding:"required"`
	Recipient           PartyRequest `json:"recipient" binding:"required"`
	PackageDescription  string       `json:"package_description" binding:"max=500"`
	WeightKg            float64      `json:"weight_kg" binding:"gte=0"`
	DestinationBranchID uint         `json:"destination_branch_id" binding:"required"`
	// AssignedToID, when set on a local delivery, assigns immediately.
	AssignedToID *uint  `json:"assigned_to_id"`
	Notes        string `json:"notes"`
}

func (r *CreateShipmentRequest) validatePhones() error {
	if !validPhone(r.Sender.Phone) {
		return apperrors.Validation("Sender phone '%s' is not a valid phone number", r.Sender.Phone)
	}
	if !validPhone(r.Recipient.Phone) {
		return apperrors.Validation("Recipient phone '%s' is not a valid phone number", r.Recipient.Phone)
	}
	return nil
}

// CreateShipment books a shipment at the actor's branch. Local deliveries
// (origin == destination) with an inline assignee get a second transition to
// ASSIGNED, so their history carries exactly two rows.
func CreateShipment(c *gin.Context) {
	actor := middleware.GetActor(c)

	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validatePhones(); err != nil {
		fail(c, err)
		return
	}

	var destination models.Branch
	if err := config.DB.First(&destination, req.DestinationBranchID).Error; err != nil {
		fail(c, apperrors.Validation("Destination branch %d does not exist", req.DestinationBranchID))
		return
	}

	originID := *actor.BranchID
	shipment := models.Shipment{
		TrackingID:          newTrackingID(),
		Sender:              models.Party(req.Sender),
		Recipient:           models.Party(req.Recipient),
		PackageDescription:  req.PackageDescription,
		WeightKg:            req.WeightKg,
		OriginBranchID:      originID,
		DestinationBranchID: req.DestinationBranchID,
		CurrentBranchID:     originID,
		Status:              models.StatusAtOriginBranch,
		CreatedByID:         actor.UserID,
	}

	if req.AssignedToID != nil && !shipment.IsLocal() {
		fail(c, apperrors.Validation("Only local deliveries (origin == destination) can be assigned at creation"))
		return
	}

	bookingNote := "Shipment booked at origin branch"
	if req.Notes != "" {
		bookingNote = req.Notes
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&shipment).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.ShipmentStatusHistory{
			ShipmentID: shipment.ID,
			ToStatus:   models.StatusAtOriginBranch,
			ChangedBy:  actor.UserID,
			Note:       bookingNote,
		}).Error; err != nil {
			return err
		}
		if req.AssignedToID != nil {
			return assignInTx(tx, &shipment, *req.AssignedToID, actor, "Assigned at booking (local delivery)")
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	if shipment.AssignedToID != nil {
		notify.Send(*shipment.AssignedToID, notify.EventShipmentAssigned,
			"Shipment "+shipment.TrackingID+" assigned to you", &shipment.ID)
	}

	config.DB.Preload("DestinationBranch").Preload("AssignedTo").Preload("StatusHistory").First(&shipment, shipment.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Shipment created", "shipment": shipment})
}

// assignInTx validates the assignee and flips the shipment to ASSIGNED with
// its history row. Assignment is only legal toward delivery staff of the
// shipment's current branch.
func assignInTx(tx *gorm.DB, shipment *models.Shipment, assigneeID uint, actor models.Actor, note string) error {
	if err := statemachine.CanTransition(shipment.Status, models.StatusAssigned, statemachine.ActorBranch); err != nil {
		return err
	}
	if shipment.Status == models.StatusAtOriginBranch && !shipment.IsLocal() {
		return apperrors.InvalidTransition(
			"Shipment %s is destined for another branch and must travel by manifest before assignment", shipment.TrackingID)
	}

	var assignee models.User
	if err := tx.First(&assignee, assigneeID).Error; err != nil {
		if isNotFound(err) {
			return apperrors.Validation("Assignee user %d does not exist", assigneeID)
		}
		return err
	}
	if assignee.Role != models.RoleStaff {
		return apperrors.Validation("Shipments can only be assigned to delivery staff")
	}
	if assignee.BranchID == nil || *assignee.BranchID != shipment.CurrentBranchID {
		return apperrors.Validation("Assignee must belong to the shipment's current branch")
	}

	prev := shipment.Status
	if err := tx.Model(shipment).Updates(map[string]interface{}{
		"status":         models.StatusAssigned,
		"assigned_to_id": assigneeID,
	}).Error; err != nil {
		return err
	}
	shipment.Status = models.StatusAssigned
	shipment.AssignedToID = &assigneeID

	return tx.Create(&models.ShipmentStatusHistory{
		ShipmentID: shipment.ID,
		FromStatus: prev,
		ToStatus:   models.StatusAssigned,
		ChangedBy:  actor.UserID,
		Note:       note,
	}).Error
}

// ListShipments returns shipments the branch originates or currently holds
func ListShipments(c *gin.Context) {
	actor := middleware.GetActor(c)
	page, limit, offset := pagination(c)

	query := config.DB.Model(&models.Shipment{}).
		Preload("DestinationBranch").Preload("AssignedTo").
		Where("origin_branch_id = ? OR current_branch_id = ?", *actor.BranchID, *actor.BranchID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if dest := c.Query("destination_branch_id"); dest != "" {
		query = query.Where("destination_branch_id = ?", dest)
	}

	var total int64
	query.Count(&total)

	var shipments []models.Shipment
	query.Order("created_at desc").Limit(limit).Offset(offset).Find(&shipments)

	c.JSON(http.StatusOK, gin.H{
		"page":      page,
		"limit":     limit,
		"total":     total,
		"shipments": shipments,
	})
}

// GetShipment returns one shipment with full detail and history
func GetShipment(c *gin.Context) {
	actor := middleware.GetActor(c)

	var shipment models.Shipment
	if err := config.DB.
		Preload("OriginBranch").Preload("DestinationBranch").Preload("CurrentBranch").
		Preload("AssignedTo").Preload("CreatedBy").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }).
		First(&shipment, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Shipment not found"))
		return
	}
	if !actor.SameBranch(shipment.OriginBranchID) && !actor.SameBranch(shipment.CurrentBranchID) && !actor.SameBranch(shipment.DestinationBranchID) {
		fail(c, apperrors.Forbidden("This shipment is not visible to your branch"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shipment":          shipment,
		"valid_next_states": statemachine.ValidTransitionsFrom(shipment.Status),
	})
}

type UpdateShipmentRequest struct {
	Sender             *PartyRequest `json:"sender"`
	Recipient          *PartyRequest `json:"recipient"`
	PackageDescription *string       `json:"package_description"`
	WeightKg           *float64      `json:"weight_kg"`
}

// UpdateShipment edits shipment details. Edit-any-field authority belongs to
// the origin-branch creator only; everyone else progresses status instead.
func UpdateShipment(c *gin.Context) {
	actor := middleware.GetActor(c)

	var shipment models.Shipment
	if err := config.DB.First(&shipment, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Shipment not found"))
		return
	}
	if shipment.CreatedByID != actor.UserID || !actor.SameBranch(shipment.OriginBranchID) {
		fail(c, apperrors.Forbidden("Only the origin-branch creator can edit shipment details"))
		return
	}
	if statemachine.IsTerminal(shipment.Status) {
		fail(c, apperrors.InvalidTransition("Shipment %s is %s and can no longer be edited", shipment.TrackingID, shipment.Status))
		return
	}

	var req UpdateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Sender != nil {
		if !validPhone(req.Sender.Phone) {
			fail(c, apperrors.Validation("Sender phone '%s' is not a valid phone number", req.Sender.Phone))
			return
		}
		updates["sender_name"] = req.Sender.Name
		updates["sender_address"] = req.Sender.Address
		updates["sender_phone"] = req.Sender.Phone
	}
	if req.Recipient != nil {
		if !validPhone(req.Recipient.Phone) {
			fail(c, apperrors.Validation("Recipient phone '%s' is not a valid phone number", req.Recipient.Phone))
			return
		}
		updates["recipient_name"] = req.Recipient.Name
		updates["recipient_address"] = req.Recipient.Address
		updates["recipient_phone"] = req.Recipient.Phone
	}
	if req.PackageDescription != nil {
		updates["package_description"] = *req.PackageDescription
	}
	if req.WeightKg != nil {
		updates["weight_kg"] = *req.WeightKg
	}
	if len(updates) > 0 {
		config.DB.Model(&shipment).Updates(updates)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Shipment updated", "shipment": shipment})
}

type StatusUpdateRequest struct {
	Status        models.ShipmentStatus `json:"status" binding:"required"`
	Note          string                `json:"note"`
	AssignedToID  *uint                 `json:"assigned_to_id"`
	ProofType     models.ProofType      `json:"proof_type"`
	ProofURL      string                `json:"proof_url"`
	FailureReason string                `json:"failure_reason"`
}

// UpdateShipmentStatus is the branch-side status endpoint: the current
// branch's admins progress the shipment (assign, out-for-delivery, deliver,
// fail). Transit legs are reserved for manifest dispatch/receive.
func UpdateShipmentStatus(c *gin.Context) {
	actor := middleware.GetActor(c)

	var shipment models.Shipment
	if err := config.DB.First(&shipment, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Shipment not found"))
		return
	}
	if !actor.SameBranch(shipment.CurrentBranchID) {
		fail(c, apperrors.Forbidden("Only the shipment's current branch can progress its status"))
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := applyStatusChange(&shipment, req, actor, statemachine.ActorBranch); err != nil {
		fail(c, err)
		return
	}
	notifyStatusChange(&shipment)

	c.JSON(http.StatusOK, gin.H{
		"message":        "Shipment status updated",
		"shipment_id":    shipment.ID,
		"tracking_id":    shipment.TrackingID,
		"current_status": shipment.Status,
	})
}

// applyStatusChange runs one state-machine transition with its side effects
// inside a transaction: exactly one history row is appended per change.
func applyStatusChange(shipment *models.Shipment, req StatusUpdateRequest, actor models.Actor, smActor string) error {
	return config.DB.Transaction(func(tx *gorm.DB) error {
		switch req.Status {
		case models.StatusAssigned:
			assigneeID := req.AssignedToID
			if assigneeID == nil {
				return apperrors.Validation("assigned_to_id is required when assigning a shipment")
			}
			return assignInTx(tx, shipment, *assigneeID, actor, req.Note)

		case models.StatusDelivered:
			if err := statemachine.CanTransition(shipment.Status, req.Status, smActor); err != nil {
				return err
			}
			if req.ProofType != models.ProofSignature && req.ProofType != models.ProofPhoto {
				return apperrors.Validation("Delivery requires proof_type 'signature' or 'photo'")
			}
			if req.ProofURL == "" {
				return apperrors.Validation("Delivery requires a proof_url from the upload service")
			}
			return transitionInTx(tx, shipment, req.Status, actor, req.Note, map[string]interface{}{
				"proof_type": req.ProofType,
				"proof_url":  req.ProofURL,
			})

		case models.StatusFailed:
			if err := statemachine.CanTransition(shipment.Status, req.Status, smActor); err != nil {
				return err
			}
			if req.FailureReason == "" {
				return apperrors.Validation("A failure reason is required when marking a shipment FAILED")
			}
			return transitionInTx(tx, shipment, req.Status, actor, req.Note, map[string]interface{}{
				"failure_reason": req.FailureReason,
			})

		default:
			if err := statemachine.CanTransition(shipment.Status, req.Status, smActor); err != nil {
				return err
			}
			return transitionInTx(tx, shipment, req.Status, actor, req.Note, nil)
		}
	})
}

// notifyStatusChange fires the one-way side channel after the transaction
// has committed. Who hears about it depends on the state reached.
func notifyStatusChange(shipment *models.Shipment) {
	switch shipment.Status {
	case models.StatusAssigned:
		if shipment.AssignedToID != nil {
			notify.Send(*shipment.AssignedToID, notify.EventShipmentAssigned,
				"Shipment "+shipment.TrackingID+" assigned to you", &shipment.ID)
		}
	case models.StatusDelivered:
		notify.Send(shipment.CreatedByID, notify.EventShipmentDelivered,
			"Shipment "+shipment.TrackingID+" was delivered", &shipment.ID)
	case models.StatusFailed:
		notify.Send(shipment.CreatedByID, notify.EventShipmentFailed,
			"Delivery of shipment "+shipment.TrackingID+" failed", &shipment.ID)
	}
}

// transitionInTx flips the status, applies extra column updates, and appends
// the history row.
func transitionInTx(tx *gorm.DB, shipment *models.Shipment, to models.ShipmentStatus, actor models.Actor, note string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	prev := shipment.Status
	if err := tx.Model(shipment).Updates(updates).Error; err != nil {
		return err
	}
	shipment.Status = to

	return tx.Create(&models.ShipmentStatusHistory{
		ShipmentID: shipment.ID,
		FromStatus: prev,
		ToStatus:   to,
		ChangedBy:  actor.UserID,
		Note:       note,
	}).Error
}

// DeleteShipment removes a shipment and its history. Delete authority is the
// origin-branch creator only; current-branch custody is not enough.
func DeleteShipment(c *gin.Context) {
	actor := middleware.GetActor(c)

	var shipment models.Shipment
	if err := config.DB.First(&shipment, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Shipment not found"))
		return
	}
	if shipment.CreatedByID != actor.UserID || !actor.SameBranch(shipment.OriginBranchID) {
		fail(c, apperrors.Forbidden("Only the creator at the origin branch can delete a shipment"))
		return
	}
	if shipment.ManifestID != nil {
		fail(c, apperrors.Conflict("Shipment %s is part of a manifest and cannot be deleted", shipment.TrackingID))
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shipment_id = ?", shipment.ID).Delete(&models.ShipmentStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&shipment).Error
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Shipment deleted", "shipment_id": shipment.ID})
}

// BranchDashboard returns per-status counts for the branch's work queue
func BranchDashboard(c *gin.Context) {
	actor := middleware.GetActor(c)

	var shipments []models.Shipment
	config.DB.Where("origin_branch_id = ? OR current_branch_id = ?", *actor.BranchID, *actor.BranchID).
		Find(&shipments)

	summary := map[string]int{}
	for _, s := range shipments {
		summary[string(s.Status)]++
	}

	var openManifests int64
	config.DB.Model(&models.Manifest{}).
		Where("(from_branch_id = ? OR to_branch_id = ?) AND status = ?", *actor.BranchID, *actor.BranchID, models.ManifestInTransit).
		Count(&openManifests)

	c.JSON(http.StatusOK, gin.H{
		"status_summary":       summary,
		"total_shipments":      len(shipments),
		"manifests_in_transit": openManifests,
	})
}
