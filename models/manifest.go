package models

import "time"

// ManifestStatus is the one-way manifest state: IN_TRANSIT → COMPLETED.
// No cancellation is modeled.
type ManifestStatus string

const (
	ManifestInTransit ManifestStatus = "IN_TRANSIT"
	ManifestCompleted ManifestStatus = "COMPLETED"
)

// Manifest is a transport batch of shipments moving between two branches.
// FromBranchID and ToBranchID always differ; local deliveries never ride
// a manifest.
type Manifest struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"uniqueIndex;not null"`

	FromBranchID uint   `json:"from_branch_id" gorm:"not null"`
	FromBranch   Branch `json:"from_branch,omitempty" gorm:"foreignKey:FromBranchID"`
	ToBranchID   uint   `json:"to_branch_id" gorm:"not null"`
	ToBranch     Branch `json:"to_branch,omitempty" gorm:"foreignKey:ToBranchID"`

	Status ManifestStatus `json:"status" gorm:"not null;default:'IN_TRANSIT'"`

	VehicleNumber string `json:"vehicle_number"`
	DriverName    string `json:"driver_name"`
	Notes         string `json:"notes"`

	DispatchedAt   time.Time  `json:"dispatched_at"`
	DispatchedByID uint       `json:"dispatched_by_id" gorm:"not null"`
	ReceivedAt     *time.Time `json:"received_at"`
	ReceivedByID   *uint      `json:"received_by_id"`

	Shipments []Shipment `json:"shipments,omitempty" gorm:"foreignKey:ManifestID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
