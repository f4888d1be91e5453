package notify

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// Sender delivers a push notification to a single device token.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// FCM sends through Firebase Cloud Messaging. With Skip set it logs and
// reports success, so dev environments run without credentials.
type FCM struct {
	client *messaging.Client
	Skip   bool
}

// NewFCM builds a sender from an initialized firebase app. When skip is set
// the messaging client is not contacted.
func NewFCM(ctx context.Context, app *firebase.App, skip bool) (*FCM, error) {
	if skip {
		return &FCM{Skip: true}, nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}
	return &FCM{client: client}, nil
}

// Send pushes one notification. Delivery problems are the caller's to log;
// this client does not retry.
func (f *FCM) Send(ctx context.Context, token, title, body string) error {
	if f.Skip {
		log.Printf("push skipped (dev mode): %s / %s", title, body)
		return nil
	}
	_, err := f.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
