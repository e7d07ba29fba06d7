package handlers

import (
	"net/http"

	"courier-api/config"
	"courier-api/middleware"
	"courier-api/models"

	"github.com/gin-gonic/gin"
)

// GetNotifications is the dashboard badge poller: recent notifications for
// the caller, optionally unread only.
func GetNotifications(c *gin.Context) {
	actor := middleware.GetActor(c)

	query := config.DB.Where("user_id = ?", actor.UserID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	query.Order("created_at desc").Limit(50).Find(&notifications)

	var unread int64
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", actor.UserID, false).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"unread_count":  unread,
		"notifications": notifications,
	})
}

// MarkNotificationsRead clears the badge
func MarkNotificationsRead(c *gin.Context) {
	actor := middleware.GetActor(c)
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", actor.UserID, false).
		Update("read", true)
	c.JSON(http.StatusOK, gin.H{"message": "Notifications marked as read"})
}
