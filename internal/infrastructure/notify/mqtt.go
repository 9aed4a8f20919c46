package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"medremind/internal/domain/constant"
	"medremind/internal/pkg/config"
	appErrors "medremind/internal/pkg/errors"
)

const publishTimeout = 5 * time.Second

// MQTTNotifier publishes notification documents to a broker topic, for
// dispenser-style device integrations that subscribe on their end.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	qos    byte
	log    *zap.Logger
}

func NewMQTTNotifier(cfg config.MQTTConfig, log *zap.Logger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.Broker, token.Error())
	}
	return &MQTTNotifier{client: client, topic: cfg.Topic, qos: byte(cfg.QoS), log: log}, nil
}

func (n *MQTTNotifier) DeclareCategories(ctx context.Context) error {
	n.log.Info("notification actions ready",
		zap.String("category", constant.NotificationCategory),
		zap.String("topic", n.topic))
	return nil
}

func (n *MQTTNotifier) RequestPermission(ctx context.Context) (bool, error) {
	return n.client.IsConnected(), nil
}

func (n *MQTTNotifier) SendReminder(ctx context.Context, medicationName, dosage string, p Payload) error {
	return n.publish(reminderMessage(medicationName, dosage, p))
}

func (n *MQTTNotifier) SendImmediate(ctx context.Context, title, body string) error {
	return n.publish(notificationMessage{Type: "immediate", Title: title, Body: body})
}

func (n *MQTTNotifier) publish(msg notificationMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode message: %v", appErrors.ErrDelivery, err)
	}
	token := n.client.Publish(n.topic, n.qos, false, b)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: publish timed out", appErrors.ErrDelivery)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrDelivery, err)
	}
	return nil
}
