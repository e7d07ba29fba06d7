package models

import "time"

// ShipmentStatus represents all possible states of a shipment
type ShipmentStatus string

const (
	StatusAtOriginBranch         ShipmentStatus = "AT_ORIGIN_BRANCH"
	StatusInTransitToDestination ShipmentStatus = "IN_TRANSIT_TO_DESTINATION"
	StatusAtDestinationBranch    ShipmentStatus = "AT_DESTINATION_BRANCH"
	StatusAssigned               ShipmentStatus = "ASSIGNED"
	StatusOutForDelivery         ShipmentStatus = "OUT_FOR_DELIVERY"
	StatusDelivered              ShipmentStatus = "DELIVERED"
	StatusFailed                 ShipmentStatus = "FAILED"
)

// ProofType is the kind of delivery proof attached at the DELIVERED transition
type ProofType string

const (
	ProofSignature ProofType = "signature"
	ProofPhoto     ProofType = "photo"
)

// Party is a sender or recipient, embedded in the shipment row.
type Party struct {
	Name    string `json:"name" gorm:"not null"`
	Address string `json:"address" gorm:"not null"`
	Phone   string `json:"phone" gorm:"not null"`
}

type Shipment struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	TrackingID string `json:"tracking_id" gorm:"uniqueIndex;not null"`

	Sender    Party `json:"sender" gorm:"embedded;embeddedPrefix:sender_"`
	Recipient Party `json:"recipient" gorm:"embedded;embeddedPrefix:recipient_"`

	PackageDescription string  `json:"package_description"`
	WeightKg           float64 `json:"weight_kg"`

	OriginBranchID      uint    `json:"origin_branch_id" gorm:"not null"`
	OriginBranch        Branch  `json:"origin_branch,omitempty" gorm:"foreignKey:OriginBranchID"`
	DestinationBranchID uint    `json:"destination_branch_id" gorm:"not null"`
	DestinationBranch   Branch  `json:"destination_branch,omitempty" gorm:"foreignKey:DestinationBranchID"`
	// CurrentBranchID mutates as the shipment moves; it stays at the origin
	// while in transit and flips on manifest receipt.
	CurrentBranchID uint   `json:"current_branch_id" gorm:"not null"`
	CurrentBranch   Branch `json:"current_branch,omitempty" gorm:"foreignKey:CurrentBranchID"`

	Status ShipmentStatus `json:"status" gorm:"not null;default:'AT_ORIGIN_BRANCH'"`

	AssignedToID *uint `json:"assigned_to_id"`
	AssignedTo   *User `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`

	// ManifestID is set when the shipment is swept into a manifest. The
	// forward-only state machine means a shipment joins at most one manifest,
	// so a nil ManifestID doubles as the "not already claimed" predicate.
	ManifestID *uint `json:"manifest_id"`

	ProofType     ProofType `json:"proof_type,omitempty"`
	ProofURL      string    `json:"proof_url,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`

	CreatedByID uint `json:"created_by_id" gorm:"not null"`
	CreatedBy   User `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`

	StatusHistory []ShipmentStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:ShipmentID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLocal reports whether the shipment is a local delivery (same origin and
// destination branch) which skips the manifest leg entirely.
func (s *Shipment) IsLocal() bool {
	return s.OriginBranchID == s.DestinationBranchID
}

// ShipmentStatusHistory tracks every status change. Rows are append-only:
// the audit trail is never edited or removed retroactively.
type ShipmentStatusHistory struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ShipmentID uint           `json:"shipment_id" gorm:"not null;index"`
	FromStatus ShipmentStatus `json:"from_status"`
	ToStatus   ShipmentStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint           `json:"changed_by"` // user ID who triggered the transition
	Note       string         `json:"note"`
	CreatedAt  time.Time      `json:"created_at"`
}
