package service

import (
	"context"

	"rental-marketplace-backend/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type fcmSender struct {
	client *messaging.Client
}

// NewFCMSender returns nil when Firebase is not configured or cannot be initialised,
// in which case push is skipped.
func NewFCMSender(ctx context.Context, credentialsFile, projectID string) PushSender {
	if credentialsFile == "" {
		return nil
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		logger.Error("Failed to init Firebase app", "error", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Error("Failed to get Firebase messaging client", "error", err)
		return nil
	}
	return &fcmSender{client: client}
}

func (s *fcmSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	logger.ExternalServiceCall("fcm", "send", "title", title)
	_, err := s.client.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "send", err)
	return err
}
