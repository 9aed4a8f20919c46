package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"medremind/internal/domain/constant"
	"medremind/internal/pkg/config"
	appErrors "medremind/internal/pkg/errors"
)

// WebhookNotifier POSTs notification documents to a configured URL, for
// deployments that bring their own delivery frontend.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	log    *zap.Logger
}

func NewWebhookNotifier(cfg config.WebhookConfig, log *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond)
	return &WebhookNotifier{client: client, url: cfg.URL, log: log}
}

func (n *WebhookNotifier) DeclareCategories(ctx context.Context) error {
	n.log.Info("notification actions ready",
		zap.String("category", constant.NotificationCategory),
		zap.String("url", n.url))
	return nil
}

func (n *WebhookNotifier) RequestPermission(ctx context.Context) (bool, error) {
	return n.url != "", nil
}

func (n *WebhookNotifier) SendReminder(ctx context.Context, medicationName, dosage string, p Payload) error {
	return n.post(ctx, reminderMessage(medicationName, dosage, p))
}

func (n *WebhookNotifier) SendImmediate(ctx context.Context, title, body string) error {
	return n.post(ctx, notificationMessage{Type: "immediate", Title: title, Body: body})
}

func (n *WebhookNotifier) post(ctx context.Context, msg notificationMessage) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrDelivery, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: webhook returned %s", appErrors.ErrDelivery, resp.Status())
	}
	return nil
}
