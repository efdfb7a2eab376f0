// Package notify delivers emergency alerts raised by the diagnosis service:
// to the log, an HTTP webhook, an MQTT topic, and the alert log.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/alertlog"
	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// LogNotifier writes alerts to the application log. It never fails.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyEmergency(ctx context.Context, alert *domain.EmergencyAlert) error {
	n.logger.WithFields(logrus.Fields{
		"alert_id":          alert.ID,
		"request_id":        alert.RequestID,
		"category":          alert.Category,
		"emergency_contact": alert.EmergencyContact,
		"contact_name":      alert.Contact.Name,
		"symptoms":          alert.Symptoms,
	}).Warn("EMERGENCY ALERT")
	return nil
}

// Multi fans an alert out to every channel. All channels are attempted;
// the returned error joins the individual failures.
type Multi []domain.Notifier

func (m Multi) NotifyEmergency(ctx context.Context, alert *domain.EmergencyAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyEmergency(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordingNotifier delivers through next and records the outcome in the
// alert log. A failure to record is logged and does not change the
// delivery result.
type RecordingNotifier struct {
	next   domain.Notifier
	store  alertlog.Store
	logger *logrus.Logger
}

// NewRecordingNotifier wraps next. next may be nil, in which case alerts are
// only recorded.
func NewRecordingNotifier(next domain.Notifier, store alertlog.Store, logger *logrus.Logger) *RecordingNotifier {
	return &RecordingNotifier{next: next, store: store, logger: logger}
}

func (n *RecordingNotifier) NotifyEmergency(ctx context.Context, alert *domain.EmergencyAlert) error {
	var deliveryErr error
	if n.next != nil {
		deliveryErr = n.next.NotifyEmergency(ctx, alert)
	}

	if err := n.store.Save(ctx, alertlog.NewRecord(alert, deliveryErr)); err != nil {
		n.logger.WithError(err).WithField("alert_id", alert.ID).Error("Failed to record emergency alert")
	}
	return deliveryErr
}

// New assembles the notifier chain described by cfg: the log notifier, plus
// a webhook and an MQTT publisher when configured, recorded to store when
// store is non-nil. The returned close function releases broker
// connections.
func New(cfg domain.NotifierConfig, store alertlog.Store, logger *logrus.Logger) (domain.Notifier, func(), error) {
	channels := Multi{NewLogNotifier(logger)}
	closeFn := func() {}

	if cfg.Webhook.URL != "" {
		channels = append(channels, NewWebhookNotifier(cfg.Webhook, logger))
	}

	if cfg.MQTT.Broker != "" {
		mqttNotifier, err := NewMQTTNotifier(cfg.MQTT, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating MQTT notifier: %w", err)
		}
		channels = append(channels, mqttNotifier)
		closeFn = mqttNotifier.Close
	}

	logger.WithFields(logrus.Fields{
		"channels":  len(channels),
		"webhook":   cfg.Webhook.URL != "",
		"mqtt":      cfg.MQTT.Broker != "",
		"recording": store != nil,
	}).Info("Emergency notifier configured")

	var notifier domain.Notifier = channels
	if store != nil {
		notifier = NewRecordingNotifier(channels, store, logger)
	}
	return notifier, closeFn, nil
}
