package handlers

import (
	"net/http"

	"courier-api/apperrors"
	"courier-api/config"
	"courier-api/middleware"
	"courier-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type CreateStaffRequest struct {
	Name      string          `json:"name" binding:"required"`
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=6"`
	Role      models.UserRole `json:"role" binding:"required"`
	IsManager bool            `json:"is_manager"`
	Phone     string          `json:"phone"`
}

// ListStaff returns the actor's branch roster
func ListStaff(c *gin.Context) {
	actor := middleware.GetActor(c)
	var users []models.User
	query := config.DB.Where("branch_id = ?", *actor.BranchID)
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Order("name asc").Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "staff": users})
}

// CreateStaff provisions a user in the actor's branch. Creating another
// admin requires manager rights; a dispatcher may only create delivery staff.
func CreateStaff(c *gin.Context) {
	actor := middleware.GetActor(c)

	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role != models.RoleAdmin && req.Role != models.RoleStaff {
		fail(c, apperrors.Validation("Invalid role. Must be: admin or staff"))
		return
	}
	if req.Role == models.RoleAdmin && actor.Capability != models.CapBranchManager {
		fail(c, apperrors.Forbidden("Only the branch manager can create admin accounts"))
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		fail(c, apperrors.Conflict("Email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, err)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsManager:    req.Role == models.RoleAdmin && req.IsManager,
		BranchID:     actor.BranchID,
		Phone:        req.Phone,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Staff account created",
		"user": gin.H{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"is_manager": user.IsManager,
			"branch_id":  user.BranchID,
		},
	})
}

type UpdateStaffRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateStaff edits name/phone of a branch colleague
func UpdateStaff(c *gin.Context) {
	actor := middleware.GetActor(c)

	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Staff member not found"))
		return
	}
	if user.BranchID == nil || *user.BranchID != *actor.BranchID {
		fail(c, apperrors.Forbidden("This user does not belong to your branch"))
		return
	}

	var req UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if len(updates) > 0 {
		config.DB.Model(&user).Updates(updates)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff updated", "user": user})
}

// DeleteStaff removes a branch user — manager only. A user with shipments
// still assigned cannot be removed.
func DeleteStaff(c *gin.Context) {
	actor := middleware.GetActor(c)
	if actor.Capability != models.CapBranchManager {
		fail(c, apperrors.Forbidden("Only the branch manager can remove accounts"))
		return
	}

	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Staff member not found"))
		return
	}
	if user.BranchID == nil || *user.BranchID != *actor.BranchID {
		fail(c, apperrors.Forbidden("This user does not belong to your branch"))
		return
	}
	if user.ID == actor.UserID {
		fail(c, apperrors.Validation("You cannot delete your own account"))
		return
	}

	var openAssignments int64
	config.DB.Model(&models.Shipment{}).
		Where("assigned_to_id = ? AND status IN ?", user.ID,
			[]models.ShipmentStatus{models.StatusAssigned, models.StatusOutForDelivery}).
		Count(&openAssignments)
	if openAssignments > 0 {
		fail(c, apperrors.Conflict("User still has %d active shipment assignment(s)", openAssignments))
		return
	}

	config.DB.Delete(&user)
	c.JSON(http.StatusOK, gin.H{"message": "Staff member removed", "user_id": user.ID})
}
