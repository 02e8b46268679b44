package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const alertNotifySubject = "alerts.notify"

// NATSAlertNotifier delivers high and critical severity alerts over NATS for
// out-of-band consumption by operations tooling
type NATSAlertNotifier struct {
	natsClient *NATSClient
}

// NewNATSAlertNotifier creates a NATS-backed alert notifier
func NewNATSAlertNotifier(natsClient *NATSClient) interfaces.AlertNotifier {
	return &NATSAlertNotifier{natsClient: natsClient}
}

// EnsureAlertStream ensures the alert notification stream exists
func (n *NATSAlertNotifier) EnsureAlertStream() error {
	return n.natsClient.ensureStream("alert_notifications", []string{alertNotifySubject}, "Out-of-band alert notifications")
}

// Notify publishes the alert to the notification subject
func (n *NATSAlertNotifier) Notify(ctx context.Context, alert *entities.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := n.natsClient.Publish(ctx, alertNotifySubject, data); err != nil {
		return fmt.Errorf("failed to publish alert notification: %w", err)
	}

	log.WithFields(log.Fields{
		"alertId":  alert.ID,
		"severity": alert.Severity,
	}).Debug("Delivered alert notification")
	return nil
}

// NoopAlertNotifier discards notifications. Useful for tests.
type NoopAlertNotifier struct{}

// NewNoopAlertNotifier creates a no-op alert notifier
func NewNoopAlertNotifier() interfaces.AlertNotifier {
	return &NoopAlertNotifier{}
}

// Notify does nothing with the alert
func (n *NoopAlertNotifier) Notify(ctx context.Context, alert *entities.Alert) error {
	return nil
}
