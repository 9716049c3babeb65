package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"hither-backend/internal/engine"
)

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(credentialsFile string) (*FCMService, error) {
	ctx := context.Background()

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// NewFCMServiceFromBase64 creates a new FCM service instance from
// base64-encoded credentials, for cloud deployments where uploading a
// credentials file is impractical
func NewFCMServiceFromBase64(credentialsBase64 string) (*FCMService, error) {
	ctx := context.Background()

	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}

	opt := option.WithCredentialsJSON(credentialsJSON)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// DispatchNotification fans a notification payload produced by the engine
// out to the given device tokens.
func (s *FCMService) DispatchNotification(note engine.Notification, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.SendMulticast(tokens, note.Title, note.Body, note.Data)
}

// SendMulticast sends the same message to multiple tokens
func (s *FCMService) SendMulticast(tokens []string, title, body string, data map[string]string) error {
	ctx := context.Background()

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	log.Printf("✅ Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)
	return nil
}

// SendMemberJoinedNotification tells existing members someone joined
func (s *FCMService) SendMemberJoinedNotification(tokens []string, groupName, memberName string) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.SendMulticast(tokens,
		fmt.Sprintf("%s joined %s", memberName, groupName),
		"Tap to see the group",
		map[string]string{"type": "member_joined"},
	)
}

// SendFindRequestNotification tells the target someone is trying to find them
func (s *FCMService) SendFindRequestNotification(tokens []string, requesterName string) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.SendMulticast(tokens,
		fmt.Sprintf("%s is trying to find you", requesterName),
		"Keep your location on so they can reach you",
		map[string]string{"type": "find_request"},
	)
}
