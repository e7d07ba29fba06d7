package handlers

import (
	"net/http"

	"courier-api/apperrors"
	"courier-api/config"
	"courier-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type BranchRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Code    string `json:"code" binding:"required,min=2,max=20"`
	Address string `json:"address" binding:"max=255"`
	Phone   string `json:"phone"`
}

// CreateBranch creates a new tenant branch — superadmin only
func CreateBranch(c *gin.Context) {
	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Branch
	if err := config.DB.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		fail(c, apperrors.Conflict("Branch code '%s' is already in use", req.Code))
		return
	}

	branch := models.Branch{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if err := config.DB.Create(&branch).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Branch created", "branch": branch})
}

// ListBranches returns all branches — superadmin only
func ListBranches(c *gin.Context) {
	var branches []models.Branch
	query := config.DB
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	query.Order("name asc").Find(&branches)
	c.JSON(http.StatusOK, gin.H{"count": len(branches), "branches": branches})
}

// GetBranch returns a single branch with headcount and shipment totals
func GetBranch(c *gin.Context) {
	var branch models.Branch
	if err := config.DB.First(&branch, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Branch not found"))
		return
	}

	var staffCount, shipmentCount int64
	config.DB.Model(&models.User{}).Where("branch_id = ?", branch.ID).Count(&staffCount)
	config.DB.Model(&models.Shipment{}).Where("origin_branch_id = ?", branch.ID).Count(&shipmentCount)

	c.JSON(http.StatusOK, gin.H{
		"branch":            branch,
		"staff_count":       staffCount,
		"shipments_created": shipmentCount,
	})
}

// UpdateBranch edits branch details — superadmin only
func UpdateBranch(c *gin.Context) {
	var branch models.Branch
	if err := config.DB.First(&branch, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Branch not found"))
		return
	}

	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config.DB.Model(&branch).Updates(models.Branch{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		Phone:   req.Phone,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Branch updated", "branch": branch})
}

// DeleteBranch removes a branch and everything partitioned under it in a
// single transaction. A failure partway never leaves orphaned rows.
func DeleteBranch(c *gin.Context) {
	var branch models.Branch
	if err := config.DB.First(&branch, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Branch not found"))
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var shipmentIDs []uint
		if err := tx.Model(&models.Shipment{}).
			Where("origin_branch_id = ? OR current_branch_id = ? OR destination_branch_id = ?", branch.ID, branch.ID, branch.ID).
			Pluck("id", &shipmentIDs).Error; err != nil {
			return err
		}
		if len(shipmentIDs) > 0 {
			if err := tx.Where("shipment_id IN ?", shipmentIDs).Delete(&models.ShipmentStatusHistory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", shipmentIDs).Delete(&models.Shipment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("from_branch_id = ? OR to_branch_id = ?", branch.ID, branch.ID).Delete(&models.Manifest{}).Error; err != nil {
			return err
		}
		var userIDs []uint
		if err := tx.Model(&models.User{}).Where("branch_id = ?", branch.ID).Pluck("id", &userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) > 0 {
			if err := tx.Where("user_id IN ?", userIDs).Delete(&models.Notification{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", userIDs).Delete(&models.User{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&branch).Error
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Branch and all its data deleted", "branch_id": branch.ID})
}

type CreateManagerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

// CreateBranchManager provisions the top admin of a branch — superadmin only
func CreateBranchManager(c *gin.Context) {
	var branch models.Branch
	if err := config.DB.First(&branch, c.Param("id")).Error; err != nil {
		fail(c, apperrors.NotFound("Branch not found"))
		return
	}

	var req CreateManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	manager := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsManager:    true,
		BranchID:     &branch.ID,
		Phone:        req.Phone,
	}
	if err := config.DB.Create(&manager).Error; err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Branch manager created",
		"user": gin.H{
			"id":         manager.ID,
			"name":       manager.Name,
			"email":      manager.Email,
			"role":       manager.Role,
			"is_manager": manager.IsManager,
			"branch_id":  manager.BranchID,
		},
	})
}

// AdminGetAllShipments returns shipments across every tenant — superadmin only
func AdminGetAllShipments(c *gin.Context) {
	page, limit, offset := pagination(c)

	query := config.DB.Model(&models.Shipment{}).
		Preload("OriginBranch").Preload("DestinationBranch").Preload("AssignedTo")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("origin_branch_id = ? OR current_branch_id = ?", branchID, branchID)
	}

	var total int64
	query.Count(&total)

	var shipments []models.Shipment
	query.Order("created_at desc").Limit(limit).Offset(offset).Find(&shipments)

	summary := map[string]int{}
	for _, s := range shipments {
		summary[string(s.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"page":           page,
		"limit":          limit,
		"total":          total,
		"status_summary": summary,
		"shipments":      shipments,
	})
}

// AdminGetAllUsers returns all users — superadmin only
func AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB.Preload("Branch")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}
