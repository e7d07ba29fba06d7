package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"courier-api/config"
	"courier-api/middleware"
	"courier-api/models"
	"courier-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRouter wires the full route table against a fresh in-memory database.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	config.DB = db

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

func seedBranch(t *testing.T, name, code string) models.Branch {
	t.Helper()
	branch := models.Branch{Name: name, Code: code, Address: name + " depot", Phone: "+91 9000000000"}
	require.NoError(t, config.DB.Create(&branch).Error)
	return branch
}

// seedUser creates a user directly and returns it with a valid bearer token.
func seedUser(t *testing.T, email string, role models.UserRole, isManager bool, branchID *uint) (models.User, string) {
	t.Helper()
	user := models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsManager:    isManager,
		BranchID:     branchID,
	}
	require.NoError(t, config.DB.Create(&user).Error)
	token, err := middleware.GenerateToken(&user)
	require.NoError(t, err)
	return user, token
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func partyBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":    name,
		"address": "42 Long Enough Street, Townsville",
		"phone":   "+91 98765 43210",
	}
}

func shipmentBody(destinationID uint) map[string]interface{} {
	return map[string]interface{}{
		"sender":                partyBody("Sender Person"),
		"recipient":             partyBody("Recipient Person"),
		"package_description":   "books",
		"weight_kg":             2.5,
		"destination_branch_id": destinationID,
	}
}

func reloadShipment(t *testing.T, id uint) models.Shipment {
	t.Helper()
	var s models.Shipment
	require.NoError(t, config.DB.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at asc, id asc")
	}).First(&s, id).Error)
	return s
}

func historyCount(t *testing.T, shipmentID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, config.DB.Model(&models.ShipmentStatusHistory{}).
		Where("shipment_id = ?", shipmentID).Count(&n).Error)
	return n
}
