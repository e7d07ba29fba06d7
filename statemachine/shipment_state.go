package statemachine

import (
	"courier-api/apperrors"
	"courier-api/models"
)

// Actor capabilities recognized by the state machine. "branch" is any admin
// of the shipment's current branch, "courier" is the assigned delivery staff,
// "dispatch" is reserved for the manifest dispatch/receive operations — the
// transit legs can never be entered through the plain status endpoint.
const (
	ActorBranch   = "branch"
	ActorCourier  = "courier"
	ActorDispatch = "dispatch"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.ShipmentStatus
	To    models.ShipmentStatus
	Actor string
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Local delivery shortcut: origin == destination, assigned directly.
	// The origin==destination guard lives with the caller; the table only
	// knows the edge exists.
	{From: models.StatusAtOriginBranch, To: models.StatusAssigned, Actor: ActorBranch},
	// Manifest dispatch sweeps ready shipments into transit
	{From: models.StatusAtOriginBranch, To: models.StatusInTransitToDestination, Actor: ActorDispatch},
	// Manifest receipt lands them at the destination branch
	{From: models.StatusInTransitToDestination, To: models.StatusAtDestinationBranch, Actor: ActorDispatch},
	// Destination branch hands the shipment to local staff
	{From: models.StatusAtDestinationBranch, To: models.StatusAssigned, Actor: ActorBranch},
	// Assigned staff (or the branch on their behalf) work the delivery
	{From: models.StatusAssigned, To: models.StatusOutForDelivery, Actor: ActorBranch},
	{From: models.StatusAssigned, To: models.StatusOutForDelivery, Actor: ActorCourier},
	{From: models.StatusAssigned, To: models.StatusDelivered, Actor: ActorBranch},
	{From: models.StatusAssigned, To: models.StatusDelivered, Actor: ActorCourier},
	{From: models.StatusAssigned, To: models.StatusFailed, Actor: ActorBranch},
	{From: models.StatusAssigned, To: models.StatusFailed, Actor: ActorCourier},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: ActorBranch},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: ActorCourier},
	{From: models.StatusOutForDelivery, To: models.StatusFailed, Actor: ActorBranch},
	{From: models.StatusOutForDelivery, To: models.StatusFailed, Actor: ActorCourier},
}

// canonicalOrder ranks statuses along the normal forward path. Terminal
// states share the top rank; a shipment's rank never decreases.
var canonicalOrder = map[models.ShipmentStatus]int{
	models.StatusAtOriginBranch:         0,
	models.StatusInTransitToDestination: 1,
	models.StatusAtDestinationBranch:    2,
	models.StatusAssigned:               3,
	models.StatusOutForDelivery:         4,
	models.StatusDelivered:              5,
	models.StatusFailed:                 5,
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.ShipmentStatus
	To    models.ShipmentStatus
	Actor string
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// CanonicalRank returns the position of a status on the forward path.
func CanonicalRank(status models.ShipmentStatus) int {
	return canonicalOrder[status]
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status models.ShipmentStatus) bool {
	return status == models.StatusDelivered || status == models.StatusFailed
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.ShipmentStatus) []models.ShipmentStatus {
	var nexts []models.ShipmentStatus
	seen := map[models.ShipmentStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.ShipmentStatus, actor string) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	if IsTerminal(from) {
		return apperrors.InvalidTransition(
			"shipment is %s, a terminal state: no further status changes are permitted", from)
	}
	return apperrors.InvalidTransition(
		"invalid transition: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.ShipmentStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
