package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"courier-api/config"
	"courier-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateShipmentStartsAtOrigin(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	b := seedBranch(t, "Branch B", "B-01")
	_, token := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)

	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", token, shipmentBody(b.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)
	assert.Equal(t, models.StatusAtOriginBranch, s.Status)
	assert.Equal(t, a.ID, s.OriginBranchID)
	assert.Equal(t, a.ID, s.CurrentBranchID)
	assert.Equal(t, b.ID, s.DestinationBranchID)
	assert.Contains(t, s.TrackingID, "TRK-")
	assert.EqualValues(t, 1, historyCount(t, s.ID))
}

func TestCreateShipmentValidation(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	_, token := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)

	t.Run("bad phone", func(t *testing.T) {
		body := shipmentBody(a.ID)
		body["sender"] = map[string]interface{}{
			"name": "Sender", "address": "42 Long Enough Street", "phone": "nope",
		}
		w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("address too short", func(t *testing.T) {
		body := shipmentBody(a.ID)
		body["recipient"] = map[string]interface{}{
			"name": "Recipient", "address": "x", "phone": "+91 98765 43210",
		}
		w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown destination branch", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", token, shipmentBody(9999))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("inline assignee on inter-branch shipment", func(t *testing.T) {
		b := seedBranch(t, "Branch B", "B-01")
		staff, _ := seedUser(t, "staff@a", models.RoleStaff, false, &a.ID)
		body := shipmentBody(b.ID)
		body["assigned_to_id"] = staff.ID
		w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLocalDeliveryShortcut(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	_, token := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)
	staff, _ := seedUser(t, "staff@a", models.RoleStaff, false, &a.ID)

	body := shipmentBody(a.ID)
	body["assigned_to_id"] = staff.ID
	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)
	assert.Equal(t, models.StatusAssigned, s.Status)
	require.NotNil(t, s.AssignedToID)
	assert.Equal(t, staff.ID, *s.AssignedToID)

	// exactly two history rows: AT_ORIGIN_BRANCH then ASSIGNED
	full := reloadShipment(t, s.ID)
	require.Len(t, full.StatusHistory, 2)
	assert.Equal(t, models.StatusAtOriginBranch, full.StatusHistory[0].ToStatus)
	assert.Equal(t, models.StatusAssigned, full.StatusHistory[1].ToStatus)
}

func TestAssignRequiresCurrentBranchStaff(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	b := seedBranch(t, "Branch B", "B-01")
	_, tokenA := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)
	staffB, _ := seedUser(t, "staff@b", models.RoleStaff, false, &b.ID)
	adminA, _ := seedUser(t, "admin2@a", models.RoleAdmin, false, &a.ID)

	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", tokenA, shipmentBody(a.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)

	t.Run("staff of another branch", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/branch/shipments/%d/status", s.ID), tokenA,
			map[string]interface{}{"status": models.StatusAssigned, "assigned_to_id": staffB.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("admin instead of delivery staff", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/branch/shipments/%d/status", s.ID), tokenA,
			map[string]interface{}{"status": models.StatusAssigned, "assigned_to_id": adminA.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing assignee", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/branch/shipments/%d/status", s.ID), tokenA,
			map[string]interface{}{"status": models.StatusAssigned})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeliveryRequiresProofAndFailureRequiresReason(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	_, tokenAdmin := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)
	staff, tokenStaff := seedUser(t, "staff@a", models.RoleStaff, false, &a.ID)

	body := shipmentBody(a.ID)
	body["assigned_to_id"] = staff.ID
	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", tokenAdmin, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)
	statusURL := fmt.Sprintf("/api/staff/shipments/%d/status", s.ID)

	t.Run("delivered without proof", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, statusURL, tokenStaff,
			map[string]interface{}{"status": models.StatusDelivered})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("failed without reason", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, statusURL, tokenStaff,
			map[string]interface{}{"status": models.StatusFailed})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delivered with photo proof", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, statusURL, tokenStaff, map[string]interface{}{
			"status":     models.StatusDelivered,
			"proof_type": models.ProofPhoto,
			"proof_url":  "https://files.example.com/pod/123.jpg",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := reloadShipment(t, s.ID)
		assert.Equal(t, models.StatusDelivered, got.Status)
		assert.Equal(t, models.ProofPhoto, got.ProofType)
		assert.NotEmpty(t, got.ProofURL)
	})

	t.Run("terminal state admits no further change", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, statusURL, tokenStaff, map[string]interface{}{
			"status": models.StatusFailed, "failure_reason": "too late",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, models.StatusDelivered, reloadShipment(t, s.ID).Status)
	})
}

func TestStaffCannotTouchOthersShipments(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	_, tokenAdmin := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)
	staff1, _ := seedUser(t, "staff1@a", models.RoleStaff, false, &a.ID)
	_, tokenStaff2 := seedUser(t, "staff2@a", models.RoleStaff, false, &a.ID)

	body := shipmentBody(a.ID)
	body["assigned_to_id"] = staff1.ID
	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", tokenAdmin, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/staff/shipments/%d/status", s.ID), tokenStaff2,
		map[string]interface{}{"status": models.StatusOutForDelivery})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteShipmentIsCreatorOnly(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	b := seedBranch(t, "Branch B", "B-01")
	creator, tokenCreator := seedUser(t, "creator@a", models.RoleAdmin, false, &a.ID)
	_, tokenOtherA := seedUser(t, "other@a", models.RoleAdmin, false, &a.ID)
	_, tokenB := seedUser(t, "admin@b", models.RoleAdmin, false, &b.ID)

	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", tokenCreator, shipmentBody(b.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)
	require.Equal(t, creator.ID, s.CreatedByID)
	deleteURL := fmt.Sprintf("/api/branch/shipments/%d", s.ID)

	t.Run("same-branch non-creator is forbidden", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, deleteURL, tokenOtherA, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("destination branch admin is forbidden", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, deleteURL, tokenB, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("creator at origin succeeds and history goes with it", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, deleteURL, tokenCreator, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var n int64
		config.DB.Model(&models.Shipment{}).Count(&n)
		assert.Zero(t, n)
		assert.Zero(t, historyCount(t, s.ID))
	})
}

func TestUpdateShipmentDetailsCreatorOnly(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	b := seedBranch(t, "Branch B", "B-01")
	_, tokenCreator := seedUser(t, "creator@a", models.RoleAdmin, false, &a.ID)
	_, tokenOther := seedUser(t, "other@a", models.RoleAdmin, false, &a.ID)

	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", tokenCreator, shipmentBody(b.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)
	editURL := fmt.Sprintf("/api/branch/shipments/%d", s.ID)

	w = doJSON(t, r, http.MethodPut, editURL, tokenOther,
		map[string]interface{}{"package_description": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPut, editURL, tokenCreator,
		map[string]interface{}{"package_description": "fragile books"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, config.DB.First(&s, s.ID).Error)
	assert.Equal(t, "fragile books", s.PackageDescription)
}

func TestNotificationFiredOnAssignment(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	_, tokenAdmin := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)
	staff, tokenStaff := seedUser(t, "staff@a", models.RoleStaff, false, &a.ID)

	body := shipmentBody(a.ID)
	body["assigned_to_id"] = staff.ID
	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", tokenAdmin, body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/notifications?unread=true", tokenStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)
	assert.EqualValues(t, 1, got["unread_count"])

	w = doJSON(t, r, http.MethodPut, "/api/notifications/read", tokenStaff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/notifications?unread=true", tokenStaff, nil)
	got = decodeBody(t, w)
	assert.EqualValues(t, 0, got["unread_count"])
}

func TestPublicTracking(t *testing.T) {
	r := setupRouter(t)
	a := seedBranch(t, "Branch A", "A-01")
	b := seedBranch(t, "Branch B", "B-01")
	_, token := seedUser(t, "dispatcher@a", models.RoleAdmin, false, &a.ID)

	w := doJSON(t, r, http.MethodPost, "/api/branch/shipments", token, shipmentBody(b.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var s models.Shipment
	require.NoError(t, config.DB.First(&s).Error)

	w = doJSON(t, r, http.MethodGet, "/api/track/"+s.TrackingID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)
	assert.Equal(t, string(models.StatusAtOriginBranch), got["status"])
	// party phone numbers are withheld from the public view
	assert.NotContains(t, w.Body.String(), "98765 43210")

	w = doJSON(t, r, http.MethodGet, "/api/track/TRK-DOESNOTEXIST", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
