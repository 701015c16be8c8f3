package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Churchly/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pushTokenColumns = []string{"user_push_tokens_id", "user_profile_id", "push_token", "platform", "created_at", "updated_at"}

func TestIsExpoToken(t *testing.T) {
	assert.True(t, IsExpoToken("ExponentPushToken[abc123]"))
	assert.False(t, IsExpoToken("fcm-device-token"))
	assert.False(t, IsExpoToken(""))
}

func TestBuildTokenMessage(t *testing.T) {
	payload := NotificationPayload{
		Title:    "Youth night",
		Body:     "Starts in one hour",
		Data:     map[string]string{"type": models.NotificationTypeEventReminder},
		Sound:    "default",
		Badge:    "3",
		Priority: "high",
	}

	t.Run("ios", func(t *testing.T) {
		msg := buildTokenMessage(models.PushToken{PushToken: "ios-token", Platform: "ios"}, payload)

		assert.Equal(t, "ios-token", msg.Token)
		require.NotNil(t, msg.APNS)
		assert.Nil(t, msg.Android)
		assert.Equal(t, "10", msg.APNS.Headers["apns-priority"])
		require.NotNil(t, msg.APNS.Payload.Aps.Badge)
		assert.Equal(t, 3, *msg.APNS.Payload.Aps.Badge)
		assert.Equal(t, "Youth night", msg.APNS.Payload.Aps.Alert.Title)
	})

	t.Run("android", func(t *testing.T) {
		msg := buildTokenMessage(models.PushToken{PushToken: "android-token", Platform: "android"}, payload)

		require.NotNil(t, msg.Android)
		assert.Nil(t, msg.APNS)
		assert.Equal(t, "high", msg.Android.Priority)
		assert.Equal(t, "default", msg.Android.Notification.Sound)
		assert.Equal(t, models.NotificationTypeEventReminder, msg.Data["type"])
	})

	t.Run("bad badge is ignored", func(t *testing.T) {
		p := payload
		p.Badge = "many"
		msg := buildTokenMessage(models.PushToken{PushToken: "ios-token", Platform: "ios"}, p)
		assert.Nil(t, msg.APNS.Payload.Aps.Badge)
	})
}

func TestSendNotificationToUserViaExpo(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	originalURL := expoPushURL
	expoPushURL = server.URL
	defer func() { expoPushURL = originalURL }()

	mock := setupTestDB(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "user_push_tokens" WHERE \("user_profile_id" = 7\)`).
		WillReturnRows(sqlmock.NewRows(pushTokenColumns).
			AddRow(1, 7, "ExponentPushToken[abc]", "ios", now, now))

	svc := &PushNotificationService{httpClient: server.Client()}
	err := svc.SendNotificationToUser(7, NotificationPayload{Title: "Hello", Body: "World", Priority: "high"})

	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc]", received["to"])
	assert.Equal(t, "Hello", received["title"])
	assert.Equal(t, "high", received["priority"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendNotificationToUserWithoutTokens(t *testing.T) {
	mock := setupTestDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "user_push_tokens"`).
		WillReturnRows(sqlmock.NewRows(pushTokenColumns))

	svc := &PushNotificationService{}
	err := svc.SendNotificationToUser(7, NotificationPayload{Title: "Hello"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no push tokens")
}

func TestExpoErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad token"}]}`))
	}))
	defer server.Close()

	originalURL := expoPushURL
	expoPushURL = server.URL
	defer func() { expoPushURL = originalURL }()

	svc := &PushNotificationService{httpClient: server.Client()}
	err := svc.sendExpoNotification(models.PushToken{PushToken: "ExponentPushToken[x]"}, NotificationPayload{Title: "Hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "bad token")
}

func TestFCMCallsRequireClient(t *testing.T) {
	svc := &PushNotificationService{}

	assert.Error(t, svc.SendToTopic(models.TopicAnnouncements, NotificationPayload{Title: "Hi"}))
	assert.Error(t, svc.SubscribeToTopic([]string{"token"}, models.TopicEvents))
	assert.Error(t, svc.sendToToken(models.PushToken{PushToken: "fcm-token", Platform: "android"}, NotificationPayload{}))
}

func TestUnsubscribeTokens(t *testing.T) {
	svc := &PushNotificationService{}

	assert.NoError(t, svc.UnsubscribeTokens(nil))
	assert.NoError(t, svc.UnsubscribeTokens([]string{"ExponentPushToken[abc]"}))
	assert.Error(t, svc.UnsubscribeTokens([]string{"ExponentPushToken[abc]", "fcm-token"}))
}
