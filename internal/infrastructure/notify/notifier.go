// Package notify delivers reminder notifications and receives nothing: the
// inbound response path lives in the API layer. One channel is active per
// process, selected by configuration.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"medremind/internal/domain/constant"
	"medremind/internal/pkg/config"
)

// Payload rides along with every reminder notification and comes back on
// the response channel, so an acknowledge can attribute the intake to the
// right medication and occurrence.
type Payload struct {
	Action       constant.ResponseAction `json:"action,omitempty"`
	MedicationID string                  `json:"medicationId"`
	ReminderTime string                  `json:"reminderTime"`
}

// Notifier is the outbound delivery channel.
type Notifier interface {
	// DeclareCategories performs the one-time action-set declaration.
	DeclareCategories(ctx context.Context) error
	// RequestPermission reports whether the channel may deliver right now.
	// A denied result is not an error; scheduling degrades to a no-op.
	RequestPermission(ctx context.Context) (bool, error)
	// SendReminder delivers an interactive reminder with taken/snooze
	// actions carrying the payload.
	SendReminder(ctx context.Context, medicationName, dosage string, p Payload) error
	// SendImmediate delivers a plain confirmation notification.
	SendImmediate(ctx context.Context, title, body string) error
}

// RecipientStore persists the push target learned at runtime. Satisfied by
// the store-layer KV.
type RecipientStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// New builds the notifier selected by notify.channel.
func New(cfg *config.NotifyConfig, kv RecipientStore, log *zap.Logger) (Notifier, error) {
	switch cfg.Channel {
	case "line":
		return NewLINENotifier(cfg.LINE, kv, log)
	case "webhook":
		return NewWebhookNotifier(cfg.Webhook, log), nil
	case "mqtt":
		return NewMQTTNotifier(cfg.MQTT, log)
	default:
		return nil, fmt.Errorf("unknown notify channel %q", cfg.Channel)
	}
}

// notificationMessage is the JSON document the webhook and MQTT channels
// emit.
type notificationMessage struct {
	Type     string   `json:"type"`
	Category string   `json:"category,omitempty"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Actions  []string `json:"actions,omitempty"`
	Payload  *Payload `json:"payload,omitempty"`
}

func reminderMessage(medicationName, dosage string, p Payload) notificationMessage {
	body := medicationName
	if dosage != "" {
		body = fmt.Sprintf("%s (%s)", medicationName, dosage)
	}
	return notificationMessage{
		Type:     "reminder",
		Category: constant.NotificationCategory,
		Title:    "Medication reminder",
		Body:     body,
		Actions:  []string{string(constant.ActionTaken), string(constant.ActionSnooze)},
		Payload:  &p,
	}
}
