/**
 * @description
 * This file implements the Notifier on top of the RabbitMQ event producer.
 * The notification service consumes the published event and delivers the
 * verification code to the user's email.
 */
package app

import (
	"context"

	"github.com/payvault/payout-account-service/internal/domain"
	"github.com/payvault/payout-account-service/pkg/rabbitmq"
)

const (
	notificationExchange   = "notification_events"
	verificationRoutingKey = "bank_account.verification_code"
)

// EventNotifier publishes verification-code events to the notification exchange.
type EventNotifier struct {
	producer rabbitmq.Publisher
}

// NewEventNotifier creates a new EventNotifier.
func NewEventNotifier(producer rabbitmq.Publisher) *EventNotifier {
	return &EventNotifier{producer: producer}
}

// SendVerificationCode publishes the issued code for email delivery.
func (n *EventNotifier) SendVerificationCode(ctx context.Context, event domain.VerificationCodeIssuedEvent) error {
	return n.producer.Publish(ctx, notificationExchange, verificationRoutingKey, event)
}
