package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/sirupsen/logrus"
)

const debounceWindowMinutes = 15

// shouldSendDebounced checks if a notification should be sent based on debounce window.
// Uses atomic upsert to prevent race conditions. Also cleans up old records (>24h).
// Returns true if notification should be sent.
func shouldSendDebounced(notifType string, targetUserID int, entityID string, windowMinutes int) bool {
	_, cleanupErr := initializers.DB.Delete("notification_debounce").
		Where(goqu.L("last_triggered_at < NOW() - INTERVAL '24 hours'")).
		Executor().Exec()
	if cleanupErr != nil {
		initializers.Log.WithError(cleanupErr).Warn("error cleaning up old debounce records")
	}

	// The conditional DO UPDATE only fires outside the window, so RETURNING
	// yields no row while the window is still open.
	query := `
		INSERT INTO notification_debounce (notification_type, target_user_id, entity_id, last_triggered_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (notification_type, target_user_id, entity_id)
		DO UPDATE SET last_triggered_at = NOW()
		WHERE notification_debounce.last_triggered_at < NOW() - ($4 || ' minutes')::INTERVAL
		RETURNING debounce_id
	`

	var debounceID int
	err := initializers.DB.QueryRow(query, notifType, targetUserID, entityID, windowMinutes).Scan(&debounceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false
		}
		initializers.Log.WithError(err).Warn("error in debounce check")
		return true
	}

	return true
}

func insertNotification(notification models.Notification) error {
	_, err := initializers.DB.Insert("notification").Rows(notification).Executor().Exec()
	return err
}

func pushToUser(userID int, payload NotificationPayload) {
	pushService := GetPushNotificationService()
	if pushService == nil {
		initializers.Log.Debug("push notification service not available")
		return
	}

	if err := pushService.SendNotificationToUser(userID, payload); err != nil {
		initializers.Log.WithError(err).WithField("userId", userID).Warn("failed to send push notification")
	}
}

// NotifyOwnerOfPrayerResponse tells a prayer request's owner that someone
// responded. Debounced per request so a burst of responses yields one alert.
func NotifyOwnerOfPrayerResponse(ownerID int, requestID string, responderID int, responderName string) {
	if ownerID == responderID {
		return
	}

	if !shouldSendDebounced(models.NotificationTypePrayerResponse, ownerID, requestID, debounceWindowMinutes) {
		initializers.Log.WithFields(logrus.Fields{
			"ownerId":   ownerID,
			"requestId": requestID,
		}).Debug("debounced prayer response notification")
		return
	}

	message := fmt.Sprintf("%s is praying for your request", responderName)

	err := insertNotification(models.Notification{
		User_Profile_ID:      ownerID,
		Notification_Type:    models.NotificationTypePrayerResponse,
		Notification_Message: message,
		Notification_Status:  models.NotificationStatusUnread,
		Target_ID:            &requestID,
		Created_By:           responderID,
		Updated_By:           responderID,
	})
	if err != nil {
		initializers.Log.WithError(err).WithField("userId", ownerID).Error("failed to create PRAYER_RESPONSE notification")
	}

	pushToUser(ownerID, NotificationPayload{
		Title: "Prayer Wall",
		Body:  message,
		Data: map[string]string{
			"type":            "prayer_response",
			"prayerRequestId": requestID,
		},
	})
}

func NotifyAuthorOfTestimonyReaction(authorID int, testimonyID int, reactorID int, reactorName string, reactionType string) {
	if authorID == reactorID {
		return
	}

	entityID := strconv.Itoa(testimonyID)
	if !shouldSendDebounced(models.NotificationTypeTestimonyReaction, authorID, entityID, debounceWindowMinutes) {
		return
	}

	message := fmt.Sprintf("%s reacted %q to your testimony", reactorName, reactionType)

	err := insertNotification(models.Notification{
		User_Profile_ID:      authorID,
		Notification_Type:    models.NotificationTypeTestimonyReaction,
		Notification_Message: message,
		Notification_Status:  models.NotificationStatusUnread,
		Target_ID:            &entityID,
		Created_By:           reactorID,
		Updated_By:           reactorID,
	})
	if err != nil {
		initializers.Log.WithError(err).WithField("userId", authorID).Error("failed to create TESTIMONY_REACTION notification")
	}

	pushToUser(authorID, NotificationPayload{
		Title: "Testimonies",
		Body:  message,
		Data: map[string]string{
			"type":        "testimony_reaction",
			"testimonyId": entityID,
		},
	})
}

// NotifyAnnouncementPublished broadcasts a new announcement on the
// announcements topic.
func NotifyAnnouncementPublished(announcement models.Announcement) {
	pushService := GetPushNotificationService()
	if pushService == nil {
		initializers.Log.Debug("push notification service not available")
		return
	}

	payload := NotificationPayload{
		Title:    announcement.Title,
		Body:     truncate(announcement.Body, 140),
		Priority: "high",
		Data: map[string]string{
			"type":           "announcement_published",
			"announcementId": strconv.Itoa(announcement.Announcement_ID),
			"audience":       announcement.Audience,
		},
	}

	if err := pushService.SendToTopic(models.TopicAnnouncements, payload); err != nil {
		initializers.Log.WithError(err).Warn("failed to publish announcement push")
	}
}

// SendEventReminders pushes a reminder for every event starting within the
// window that has not been reminded yet, then marks it sent. Returns the
// number of events reminded.
func SendEventReminders(now time.Time, window time.Duration) (int, error) {
	var events []models.Event
	err := initializers.DB.From("event").
		Where(
			goqu.C("reminder_sent").IsFalse(),
			goqu.C("datetime_start").Gte(now),
			goqu.C("datetime_start").Lte(now.Add(window)),
		).
		Order(goqu.C("datetime_start").Asc()).
		ScanStructs(&events)
	if err != nil {
		return 0, fmt.Errorf("load upcoming events: %w", err)
	}

	pushService := GetPushNotificationService()
	reminded := 0

	for _, event := range events {
		if pushService != nil {
			payload := NotificationPayload{
				Title: "Upcoming: " + event.Title,
				Body:  eventReminderBody(event),
				Data: map[string]string{
					"type":    "event_reminder",
					"eventId": strconv.Itoa(event.Event_ID),
				},
			}
			if err := pushService.SendToTopic(models.TopicEvents, payload); err != nil {
				initializers.Log.WithError(err).WithField("eventId", event.Event_ID).Warn("failed to send event reminder")
				continue
			}
		}

		_, err := initializers.DB.Update("event").
			Set(goqu.Record{"reminder_sent": true}).
			Where(goqu.C("event_id").Eq(event.Event_ID)).
			Executor().Exec()
		if err != nil {
			return reminded, fmt.Errorf("mark event %d reminded: %w", event.Event_ID, err)
		}
		reminded++
	}

	return reminded, nil
}

// PurgeResetCodes removes reset codes that were used or have expired.
func PurgeResetCodes(now time.Time) (int64, error) {
	result, err := initializers.DB.Delete("password_reset_tokens").
		Where(goqu.Or(
			goqu.C("used").IsTrue(),
			goqu.C("expires_at").Lt(now),
		)).
		Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("purge reset codes: %w", err)
	}
	return result.RowsAffected()
}

func eventReminderBody(event models.Event) string {
	when := event.Datetime_Start.Format("Mon Jan 2 at 3:04 PM")
	if event.Location != "" {
		return fmt.Sprintf("%s at %s", when, event.Location)
	}
	return when
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
