package notification

import (
	"context"
	"fmt"

	"borewell/internal/models"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// MessageSender sends one FCM message. *messaging.Client implements it.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource resolves a party's push token; "" means no device.
type TokenSource interface {
	DeviceToken(ctx context.Context, party models.PartyRef) (string, error)
}

// NewFCMClient builds a messaging client from a service account file.
func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return client, nil
}

// PushNotifier sends events as FCM push messages to the recipient's device.
type PushNotifier struct {
	sender  MessageSender
	devices TokenSource
	logger  *zap.Logger
}

func NewPushNotifier(sender MessageSender, devices TokenSource, log *zap.Logger) *PushNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &PushNotifier{sender: sender, devices: devices, logger: log}
}

func (p *PushNotifier) Notify(ctx context.Context, event Event) error {
	token, err := p.devices.DeviceToken(ctx, event.Recipient)
	if err != nil {
		return fmt.Errorf("failed to resolve device token: %w", err)
	}
	if token == "" {
		p.logger.Debug("no device registered, skipping push",
			zap.Stringer("recipient", event.Recipient),
			zap.String("type", event.Type))
		return nil
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: event.Title,
			Body:  event.Body,
		},
		Data: event.payload(),
	}
	id, err := p.sender.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send push message: %w", err)
	}

	p.logger.Debug("push message sent",
		zap.String("message_id", id),
		zap.String("type", event.Type),
		zap.Stringer("recipient", event.Recipient))
	return nil
}
