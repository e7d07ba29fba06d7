package statemachine

import (
	"testing"

	"courier-api/apperrors"
	"courier-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardPathIsLegal(t *testing.T) {
	cases := []struct {
		from, to models.ShipmentStatus
		actor    string
	}{
		{models.StatusAtOriginBranch, models.StatusInTransitToDestination, ActorDispatch},
		{models.StatusInTransitToDestination, models.StatusAtDestinationBranch, ActorDispatch},
		{models.StatusAtDestinationBranch, models.StatusAssigned, ActorBranch},
		{models.StatusAssigned, models.StatusOutForDelivery, ActorCourier},
		{models.StatusOutForDelivery, models.StatusDelivered, ActorCourier},
		{models.StatusOutForDelivery, models.StatusFailed, ActorCourier},
		// local shortcut and direct-from-assigned outcomes
		{models.StatusAtOriginBranch, models.StatusAssigned, ActorBranch},
		{models.StatusAssigned, models.StatusDelivered, ActorCourier},
		{models.StatusAssigned, models.StatusFailed, ActorBranch},
	}
	for _, tc := range cases {
		assert.NoError(t, CanTransition(tc.from, tc.to, tc.actor),
			"%s → %s by %s should be legal", tc.from, tc.to, tc.actor)
	}
}

func TestBackwardAndSkippedTransitionsAreRejected(t *testing.T) {
	cases := []struct {
		from, to models.ShipmentStatus
		actor    string
	}{
		// backward
		{models.StatusAtDestinationBranch, models.StatusInTransitToDestination, ActorDispatch},
		{models.StatusAssigned, models.StatusAtDestinationBranch, ActorBranch},
		{models.StatusOutForDelivery, models.StatusAssigned, ActorCourier},
		// skipped without dispatch
		{models.StatusAtOriginBranch, models.StatusAtDestinationBranch, ActorBranch},
		{models.StatusAtOriginBranch, models.StatusDelivered, ActorBranch},
		{models.StatusInTransitToDestination, models.StatusAssigned, ActorBranch},
	}
	for _, tc := range cases {
		err := CanTransition(tc.from, tc.to, tc.actor)
		require.Error(t, err, "%s → %s by %s should be rejected", tc.from, tc.to, tc.actor)
		assert.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))
	}
}

func TestActorGates(t *testing.T) {
	// only dispatch enters the transit legs
	assert.Error(t, CanTransition(models.StatusAtOriginBranch, models.StatusInTransitToDestination, ActorBranch))
	assert.Error(t, CanTransition(models.StatusInTransitToDestination, models.StatusAtDestinationBranch, ActorCourier))
	// couriers never assign
	assert.Error(t, CanTransition(models.StatusAtDestinationBranch, models.StatusAssigned, ActorCourier))
}

func TestTerminalStatesAdmitNothing(t *testing.T) {
	for _, terminal := range []models.ShipmentStatus{models.StatusDelivered, models.StatusFailed} {
		assert.True(t, IsTerminal(terminal))
		assert.Empty(t, ValidTransitionsFrom(terminal))
		for _, actor := range []string{ActorBranch, ActorCourier, ActorDispatch} {
			err := CanTransition(terminal, models.StatusAssigned, actor)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))
		}
	}
}

func TestEveryTransitionMovesForward(t *testing.T) {
	for _, tr := range GetAllTransitions() {
		assert.Greater(t, CanonicalRank(tr.To), CanonicalRank(tr.From),
			"%s → %s must increase canonical rank", tr.From, tr.To)
	}
}

func TestValidTransitionsFromDeduplicatesActors(t *testing.T) {
	nexts := ValidTransitionsFrom(models.StatusOutForDelivery)
	assert.ElementsMatch(t,
		[]models.ShipmentStatus{models.StatusDelivered, models.StatusFailed}, nexts)
}
