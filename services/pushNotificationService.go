package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/metrics"
	"github.com/Churchly/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/doug-martin/goqu/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const pushSendTimeout = 30 * time.Second

var expoPushURL = "https://exp.host/--/api/v2/push/send"

type PushNotificationService struct {
	fcmClient  *messaging.Client
	httpClient *http.Client
}

type NotificationPayload struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Badge    string            `json:"badge,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

var pushService *PushNotificationService

func InitPushNotificationService() {
	pushService = &PushNotificationService{
		httpClient: &http.Client{Timeout: pushSendTimeout},
	}

	ctx := context.Background()
	serviceAccountPath := initializers.Cfg.FirebaseServiceAccountPath

	var app *firebase.App
	var err error

	if serviceAccountPath != "" {
		app, err = firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
		if err != nil {
			initializers.Log.WithError(err).Error("failed to initialize Firebase app with service account")
			return
		}
		initializers.Log.Info("Firebase initialized with service account file")
	} else {
		app, err = firebase.NewApp(ctx, nil)
		if err != nil {
			initializers.Log.WithError(err).Error("failed to initialize Firebase app with application default credentials")
			return
		}
		initializers.Log.Info("Firebase initialized with application default credentials")
	}

	pushService.fcmClient, err = app.Messaging(ctx)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to get Firebase messaging client")
		return
	}

	initializers.Log.Info("push notification service initialized with FCM")
}

// GetPushNotificationService returns nil until InitPushNotificationService runs.
func GetPushNotificationService() *PushNotificationService {
	return pushService
}

func GetUserPushTokens(userID int) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := initializers.DB.From("user_push_tokens").
		Where(goqu.C("user_profile_id").Eq(userID)).
		ScanStructs(&tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to get push tokens for user %d: %w", userID, err)
	}
	return tokens, nil
}

func (s *PushNotificationService) SendNotificationToUser(userID int, payload NotificationPayload) error {
	tokens, err := GetUserPushTokens(userID)
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		return fmt.Errorf("no push tokens found for user %d", userID)
	}

	for _, token := range tokens {
		if err := s.sendToToken(token, payload); err != nil {
			initializers.Log.WithError(err).WithField("userId", userID).Warn("failed to send push to token")
		}
	}

	return nil
}

func (s *PushNotificationService) SendNotificationToUsers(userIDs []int, payload NotificationPayload) error {
	failed := 0

	for _, userID := range userIDs {
		if err := s.SendNotificationToUser(userID, payload); err != nil {
			failed++
			initializers.Log.WithError(err).WithField("userId", userID).Debug("push to user skipped")
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to send notifications to %d users", failed)
	}
	return nil
}

// IsExpoToken reports whether token belongs to an Expo Go build. Those
// tokens are delivered through Expo and can't join FCM topics.
func IsExpoToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[")
}

func (s *PushNotificationService) sendToToken(pushToken models.PushToken, payload NotificationPayload) error {
	if IsExpoToken(pushToken.PushToken) {
		err := s.sendExpoNotification(pushToken, payload)
		metrics.PushSends.WithLabelValues("expo", metrics.Outcome(err)).Inc()
		return err
	}

	if s.fcmClient == nil {
		return fmt.Errorf("FCM client not initialized")
	}

	message := buildTokenMessage(pushToken, payload)

	ctx, cancel := context.WithTimeout(context.Background(), pushSendTimeout)
	defer cancel()

	response, err := s.fcmClient.Send(ctx, message)
	metrics.PushSends.WithLabelValues("fcm", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	initializers.Log.WithFields(logrus.Fields{
		"messageId": response,
		"platform":  pushToken.Platform,
	}).Debug("sent FCM notification")
	return nil
}

func buildTokenMessage(pushToken models.PushToken, payload NotificationPayload) *messaging.Message {
	message := &messaging.Message{
		Token: pushToken.PushToken,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	switch pushToken.Platform {
	case "ios":
		message.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: payload.Title,
						Body:  payload.Body,
					},
					Sound: payload.Sound,
				},
			},
		}

		if payload.Badge != "" {
			if badgeNum, err := strconv.Atoi(payload.Badge); err == nil {
				message.APNS.Payload.Aps.Badge = &badgeNum
			}
		}

		if payload.Priority == "high" {
			message.APNS.Headers = map[string]string{"apns-priority": "10"}
		}
	case "android":
		message.Android = &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				Title: payload.Title,
				Body:  payload.Body,
				Sound: payload.Sound,
			},
		}

		if payload.Priority == "high" {
			message.Android.Priority = "high"
		}
	}

	return message
}

// SendToTopic sends a notification to every device subscribed to topic.
func (s *PushNotificationService) SendToTopic(topic string, payload NotificationPayload) error {
	if s.fcmClient == nil {
		return fmt.Errorf("FCM client not initialized")
	}

	message := &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushSendTimeout)
	defer cancel()

	response, err := s.fcmClient.Send(ctx, message)
	metrics.PushSends.WithLabelValues("fcm_topic", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to send FCM topic message: %w", err)
	}

	initializers.Log.WithFields(logrus.Fields{
		"topic":     topic,
		"messageId": response,
	}).Info("sent FCM topic notification")
	return nil
}

func (s *PushNotificationService) SubscribeToTopic(tokens []string, topic string) error {
	if s.fcmClient == nil {
		return fmt.Errorf("FCM client not initialized")
	}
	if len(tokens) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushSendTimeout)
	defer cancel()

	response, err := s.fcmClient.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	initializers.Log.WithFields(logrus.Fields{
		"topic":      topic,
		"subscribed": len(tokens) - response.FailureCount,
		"failures":   response.FailureCount,
	}).Debug("subscribed tokens to topic")
	return nil
}

func (s *PushNotificationService) UnsubscribeFromTopic(tokens []string, topic string) error {
	if s.fcmClient == nil {
		return fmt.Errorf("FCM client not initialized")
	}
	if len(tokens) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushSendTimeout)
	defer cancel()

	response, err := s.fcmClient.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe from topic %s: %w", topic, err)
	}

	initializers.Log.WithFields(logrus.Fields{
		"topic":    topic,
		"failures": response.FailureCount,
	}).Debug("unsubscribed tokens from topic")
	return nil
}

// UnsubscribeTokens removes the FCM tokens among tokens from the broadcast
// topics. Expo tokens were never subscribed and are skipped.
func (s *PushNotificationService) UnsubscribeTokens(tokens []string) error {
	var fcmTokens []string
	for _, token := range tokens {
		if !IsExpoToken(token) {
			fcmTokens = append(fcmTokens, token)
		}
	}
	if len(fcmTokens) == 0 {
		return nil
	}

	for _, topic := range []string{models.TopicAnnouncements, models.TopicEvents} {
		if err := s.UnsubscribeFromTopic(fcmTokens, topic); err != nil {
			return err
		}
	}
	return nil
}

// sendExpoNotification delivers to Expo Go development builds.
func (s *PushNotificationService) sendExpoNotification(pushToken models.PushToken, payload NotificationPayload) error {
	expoMessage := map[string]interface{}{
		"to":    pushToken.PushToken,
		"title": payload.Title,
		"body":  payload.Body,
		"data":  payload.Data,
	}
	if payload.Sound != "" {
		expoMessage["sound"] = payload.Sound
	}
	if payload.Priority == "high" {
		expoMessage["priority"] = "high"
	}

	jsonBody, err := json.Marshal(expoMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal Expo message: %w", err)
	}

	client := s.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Post(expoPushURL, "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to send Expo notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		responseBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expo push API returned status %d: %s", resp.StatusCode, string(responseBody))
	}

	return nil
}
