package routes

import (
	"courier-api/handlers"
	"courier-api/middleware"
	"courier-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Public tracking by tracking ID
		public.GET("/track/:trackingId", handlers.TrackShipment)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
		auth.GET("/notifications", handlers.GetNotifications)
		auth.PUT("/notifications/read", handlers.MarkNotificationsRead)
	}

	// ── Superadmin routes ──────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleSuperAdmin))
	{
		admin.POST("/branches", handlers.CreateBranch)
		admin.GET("/branches", handlers.ListBranches)
		admin.GET("/branches/:id", handlers.GetBranch)
		admin.PUT("/branches/:id", handlers.UpdateBranch)
		admin.DELETE("/branches/:id", handlers.DeleteBranch)
		admin.POST("/branches/:id/manager", handlers.CreateBranchManager)

		admin.GET("/shipments", handlers.AdminGetAllShipments)
		admin.GET("/users", handlers.AdminGetAllUsers)
	}

	// ── Branch admin routes (managers + dispatchers) ───────────────
	branch := r.Group("/api/branch")
	branch.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin), middleware.BranchRequired())
	{
		branch.GET("/dashboard", handlers.BranchDashboard)

		// Staff management
		branch.GET("/staff", handlers.ListStaff)
		branch.POST("/staff", handlers.CreateStaff)
		branch.PUT("/staff/:id", handlers.UpdateStaff)
		branch.DELETE("/staff/:id", handlers.DeleteStaff)

		// Shipments
		branch.POST("/shipments", handlers.CreateShipment)
		branch.GET("/shipments", handlers.ListShipments)
		branch.GET("/shipments/:id", handlers.GetShipment)
		branch.PUT("/shipments/:id", handlers.UpdateShipment)
		branch.PUT("/shipments/:id/status", handlers.UpdateShipmentStatus)
		branch.DELETE("/shipments/:id", handlers.DeleteShipment)

		// Manifests
		branch.GET("/manifests/available", handlers.ListAvailableShipments)
		branch.POST("/manifests", handlers.DispatchManifest)
		branch.GET("/manifests", handlers.ListManifests)
		branch.GET("/manifests/:id", handlers.GetManifest)
		branch.PUT("/manifests/:id/receive", handlers.ReceiveManifest)
	}

	// ── Delivery staff routes ──────────────────────────────────────
	staff := r.Group("/api/staff")
	staff.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleStaff), middleware.BranchRequired())
	{
		staff.GET("/shipments", handlers.GetMyDeliveries)
		staff.PUT("/shipments/:id/status", handlers.UpdateMyDeliveryStatus)
	}
}
