package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleSuperAdmin UserRole = "superadmin"
	RoleAdmin      UserRole = "admin"
	RoleStaff      UserRole = "staff"
)

// Capability is the resolved authority of a request actor. It is computed
// once from the token claims and never re-derived from raw fields in handlers.
type Capability string

const (
	CapSuperAdmin    Capability = "super_admin"
	CapBranchManager Capability = "branch_manager"
	CapDispatcher    Capability = "dispatcher"
	CapDeliveryStaff Capability = "delivery_staff"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;default:'staff'"`
	IsManager    bool      `json:"is_manager" gorm:"default:false"`
	BranchID     *uint     `json:"branch_id"` // nil for superadmin
	Branch       *Branch   `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CapabilityOf maps role + manager flag to the explicit capability enum.
func CapabilityOf(role UserRole, isManager bool) Capability {
	switch role {
	case RoleSuperAdmin:
		return CapSuperAdmin
	case RoleAdmin:
		if isManager {
			return CapBranchManager
		}
		return CapDispatcher
	default:
		return CapDeliveryStaff
	}
}

// Actor is the authenticated caller as seen by handlers.
type Actor struct {
	UserID     uint
	BranchID   *uint
	Role       UserRole
	IsManager  bool
	Capability Capability
}

// SameBranch reports whether the actor belongs to the given branch.
func (a Actor) SameBranch(branchID uint) bool {
	return a.BranchID != nil && *a.BranchID == branchID
}
