package controllers

import (
	"net/http"
	"strconv"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"
	"github.com/Churchly/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func GetUserNotifications(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	query := initializers.DB.From("notification").
		Select("notification_id",
			"user_profile_id",
			"notification_type",
			"notification_message",
			"notification_status",
			"target_id",
			"datetime_create",
			"datetime_update",
			"created_by",
			"updated_by").
		Where(goqu.C("user_profile_id").Eq(currentUser.User_Profile_ID)).
		Order(goqu.C("datetime_create").Desc())

	if status := c.Query("status"); status == models.NotificationStatusRead || status == models.NotificationStatusUnread {
		query = query.Where(goqu.C("notification_status").Eq(status))
	}

	notifications := []models.Notification{}
	if err := query.ScanStructs(&notifications); err != nil {
		initializers.Log.WithError(err).Error("failed to load notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// ownedNotificationID parses :notification_id and confirms it belongs to
// the caller. It writes the error response itself when ok is false.
func ownedNotificationID(c *gin.Context, userID int) (int, string, bool) {
	notificationID, err := strconv.Atoi(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID", "details": err.Error()})
		return 0, "", false
	}

	var notification models.Notification
	found, err := initializers.DB.From("notification").
		Select("notification_id", "user_profile_id", "notification_status").
		Where(goqu.C("notification_id").Eq(notificationID)).
		ScanStruct(&notification)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notification"})
		return 0, "", false
	}

	// someone else's notification looks the same as a missing one
	if !found || notification.User_Profile_ID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return 0, "", false
	}

	return notificationID, notification.Notification_Status, true
}

func ToggleUserNotificationStatus(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	notificationID, currentStatus, ok := ownedNotificationID(c, currentUser.User_Profile_ID)
	if !ok {
		return
	}

	newStatus := models.NotificationStatusRead
	if currentStatus == models.NotificationStatusRead {
		newStatus = models.NotificationStatusUnread
	}

	update := initializers.DB.Update("notification").
		Set(goqu.Record{
			"notification_status": newStatus,
			"updated_by":          currentUser.User_Profile_ID,
		}).
		Where(goqu.C("notification_id").Eq(notificationID))

	if _, err := update.Executor().Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Notification marked as " + newStatus,
		"notificationStatus": newStatus,
	})
}

func DeleteUserNotification(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	notificationID, _, ok := ownedNotificationID(c, currentUser.User_Profile_ID)
	if !ok {
		return
	}

	deleteQuery := initializers.DB.Delete("notification").
		Where(goqu.C("notification_id").Eq(notificationID))

	if _, err := deleteQuery.Executor().Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}

func MarkAllNotificationsAsRead(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	update := initializers.DB.Update("notification").
		Set(goqu.Record{
			"notification_status": models.NotificationStatusRead,
			"updated_by":          currentUser.User_Profile_ID,
		}).
		Where(
			goqu.C("user_profile_id").Eq(currentUser.User_Profile_ID),
			goqu.C("notification_status").Eq(models.NotificationStatusUnread),
		)

	result, err := update.Executor().Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications as read", "details": err.Error()})
		return
	}

	rowsAffected, _ := result.RowsAffected()

	c.JSON(http.StatusOK, gin.H{
		"message":      "All notifications marked as read",
		"updatedCount": rowsAffected,
	})
}

type SendNotificationRequest struct {
	UserIDs  []int             `json:"userIds" binding:"required,min=1,dive,gt=0"`
	Title    string            `json:"title" binding:"required,notblank,max=100"`
	Body     string            `json:"body" binding:"required,notblank,max=500"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Badge    string            `json:"badge,omitempty"`
	Priority string            `json:"priority,omitempty" binding:"omitempty,oneof=normal high"`
}

// SendPushNotification records an ADMIN_MESSAGE for each recipient and
// pushes it to their devices.
func SendPushNotification(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var request SendNotificationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pushService := services.GetPushNotificationService()
	if pushService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notification service not available"})
		return
	}

	rows := make([]models.Notification, 0, len(request.UserIDs))
	for _, userID := range request.UserIDs {
		rows = append(rows, models.Notification{
			User_Profile_ID:      userID,
			Notification_Type:    models.NotificationTypeAdminMessage,
			Notification_Message: request.Title + ": " + request.Body,
			Notification_Status:  models.NotificationStatusUnread,
			Created_By:           currentUser.User_Profile_ID,
			Updated_By:           currentUser.User_Profile_ID,
		})
	}

	if _, err := initializers.DB.Insert("notification").Rows(rows).Executor().Exec(); err != nil {
		initializers.Log.WithError(err).Error("failed to record admin notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record notifications"})
		return
	}

	payload := services.NotificationPayload{
		Title:    request.Title,
		Body:     request.Body,
		Data:     request.Data,
		Sound:    request.Sound,
		Badge:    request.Badge,
		Priority: request.Priority,
	}

	if err := pushService.SendNotificationToUsers(request.UserIDs, payload); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send push notifications", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Push notifications sent successfully",
		"userIds": request.UserIDs,
	})
}
