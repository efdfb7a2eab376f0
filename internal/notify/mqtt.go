package notify

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// DefaultAlertTopic is used when no topic is configured.
const DefaultAlertTopic = "symptom-dx/alerts/emergency"

// publisher is the subset of mqtt.Client used for alert delivery.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTNotifier publishes alerts as JSON to an MQTT topic.
type MQTTNotifier struct {
	client publisher
	topic  string
	qos    byte
	logger *logrus.Logger
}

// NewMQTTNotifier connects to the configured broker.
func NewMQTTNotifier(cfg domain.MQTTConfig, logger *logrus.Logger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.WithFields(logrus.Fields{
		"broker": cfg.Broker,
		"topic":  cfg.Topic,
	}).Info("Connected to MQTT broker")

	return newMQTTNotifier(client, cfg.Topic, cfg.QoS, logger), nil
}

func newMQTTNotifier(client publisher, topic string, qos byte, logger *logrus.Logger) *MQTTNotifier {
	if topic == "" {
		topic = DefaultAlertTopic
	}
	if qos > 2 {
		qos = 1
	}
	return &MQTTNotifier{client: client, topic: topic, qos: qos, logger: logger}
}

func (n *MQTTNotifier) NotifyEmergency(ctx context.Context, alert *domain.EmergencyAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	token := n.client.Publish(n.topic, n.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publishing alert to %s: %w", n.topic, ctx.Err())
	}

	if err := token.Error(); err != nil {
		n.logger.WithError(err).WithField("alert_id", alert.ID).Error("MQTT publish failed")
		return fmt.Errorf("failed to publish to topic %s: %w", n.topic, err)
	}
	return nil
}

// Close disconnects from the broker, waiting briefly for in-flight work.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
