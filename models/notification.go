package models

import "time"

// Notification type constants
const (
	NotificationTypePrayerResponse        = "PRAYER_RESPONSE"
	NotificationTypeTestimonyReaction     = "TESTIMONY_REACTION"
	NotificationTypeAnnouncementPublished = "ANNOUNCEMENT_PUBLISHED"
	NotificationTypeEventReminder         = "EVENT_REMINDER"
	NotificationTypeAdminMessage          = "ADMIN_MESSAGE"
)

// Notification status constants
const (
	NotificationStatusRead   = "READ"
	NotificationStatusUnread = "UNREAD"
)

// Push topics every device subscribes to on login.
const (
	TopicAnnouncements = "announcements"
	TopicEvents        = "events"
)

type Notification struct {
	Notification_ID      int       `json:"notificationId" goqu:"skipinsert"`
	User_Profile_ID      int       `json:"userProfileId"`
	Notification_Type    string    `json:"notificationType"`
	Notification_Message string    `json:"notificationMessage"`
	Notification_Status  string    `json:"notificationStatus"`
	Target_ID            *string   `json:"targetId"`
	DateTime_Create      time.Time `json:"datetimeCreate" goqu:"skipinsert"`
	DateTime_Update      time.Time `json:"datetimeUpdate" goqu:"skipinsert"`
	Created_By           int       `json:"createdBy"`
	Updated_By           int       `json:"updatedBy"`
}
