package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMClient sends reminder pushes through Firebase Cloud Messaging. FCM
// keeps a connection to the device, so the notification lands even when
// the app is backgrounded or killed; the data payload carries the tick id
// so the action buttons can still be attributed to the right tick.
type FCMClient struct {
	client *messaging.Client
}

// NewFCMClient builds an FCM client from service-account credentials.
// The private key arrives from the env with literal "\n" sequences, so they
// are rewritten to real newlines before handing the PEM to the SDK.
func NewFCMClient(ctx context.Context, projectID, clientEmail, privateKey string) (*FCMClient, error) {
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")

	credsJSON := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail)

	opt := option.WithCredentialsJSON([]byte(credsJSON))
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log.Printf("[FCM] Initialized for project: %s", projectID)
	return &FCMClient{client: client}, nil
}

// SendToTokens pushes one notification to multiple device tokens in a
// single multicast call. FCM caps a multicast at 500 tokens; a user's
// device count never gets near that.
func (c *FCMClient) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			// High priority so the reminder lands even in battery-saving mode
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("send multicast: %w", err)
	}

	log.Printf("[FCM] Sent to %d tokens: %d success, %d failure",
		len(tokens), response.SuccessCount, response.FailureCount)

	for i, resp := range response.Responses {
		if !resp.Success {
			log.Printf("[FCM] Token %d failed: %v", i, resp.Error)
		}
	}

	return nil
}
