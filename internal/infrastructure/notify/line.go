package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"

	"medremind/internal/domain/constant"
	"medremind/internal/pkg/config"
	appErrors "medremind/internal/pkg/errors"
)

const recipientKey = "medremind:recipient"

// LINENotifier pushes reminders as LINE messages with quick-reply postback
// buttons. The push target is fixed in configuration or learned from the
// first follow event and persisted.
type LINENotifier struct {
	bot *linebot.Client
	kv  RecipientStore
	log *zap.Logger

	mu        sync.Mutex
	recipient string
}

func NewLINENotifier(cfg config.LINEConfig, kv RecipientStore, log *zap.Logger) (*LINENotifier, error) {
	bot, err := linebot.New(cfg.ChannelSecret, cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create line client: %w", err)
	}
	return &LINENotifier{bot: bot, kv: kv, log: log, recipient: cfg.RecipientID}, nil
}

// Client exposes the SDK client for webhook request parsing and replies.
func (n *LINENotifier) Client() *linebot.Client { return n.bot }

// Recipient resolves the push target, falling back to the persisted binding
// from a previous run. Empty when nobody is bound.
func (n *LINENotifier) Recipient(ctx context.Context) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.recipient != "" {
		return n.recipient
	}
	id, err := n.kv.Get(ctx, recipientKey)
	if err != nil {
		return ""
	}
	n.recipient = id
	return id
}

// SetRecipient binds the push target and persists it for the next start.
func (n *LINENotifier) SetRecipient(ctx context.Context, userID string) error {
	n.mu.Lock()
	n.recipient = userID
	n.mu.Unlock()
	if err := n.kv.Set(ctx, recipientKey, userID); err != nil {
		return fmt.Errorf("%w: persist recipient: %v", appErrors.ErrStoreOperation, err)
	}
	return nil
}

// ClearRecipient unbinds the push target, used on unfollow.
func (n *LINENotifier) ClearRecipient(ctx context.Context) error {
	n.mu.Lock()
	n.recipient = ""
	n.mu.Unlock()
	if err := n.kv.Delete(ctx, recipientKey); err != nil {
		return fmt.Errorf("%w: clear recipient: %v", appErrors.ErrStoreOperation, err)
	}
	return nil
}

// DeclareCategories is informational for LINE: the taken/snooze actions are
// attached to each message as quick replies rather than declared up front.
func (n *LINENotifier) DeclareCategories(ctx context.Context) error {
	n.log.Info("notification actions ready",
		zap.String("category", constant.NotificationCategory),
		zap.Strings("actions", []string{string(constant.ActionTaken), string(constant.ActionSnooze)}))
	return nil
}

// RequestPermission reports whether a recipient is bound and reachable.
func (n *LINENotifier) RequestPermission(ctx context.Context) (bool, error) {
	recipient := n.Recipient(ctx)
	if recipient == "" {
		return false, nil
	}
	if _, err := n.bot.GetProfile(recipient).WithContext(ctx).Do(); err != nil {
		n.log.Warn("line profile check failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (n *LINENotifier) SendReminder(ctx context.Context, medicationName, dosage string, p Payload) error {
	recipient := n.Recipient(ctx)
	if recipient == "" {
		return fmt.Errorf("%w: no recipient bound", appErrors.ErrDelivery)
	}

	text := fmt.Sprintf("Time for your medication: %s", medicationName)
	if dosage != "" {
		text = fmt.Sprintf("%s (%s)", text, dosage)
	}

	taken, err := actionData(constant.ActionTaken, p)
	if err != nil {
		return err
	}
	snooze, err := actionData(constant.ActionSnooze, p)
	if err != nil {
		return err
	}

	msg := linebot.NewTextMessage(text).WithQuickReplies(linebot.NewQuickReplyItems(
		linebot.NewQuickReplyButton("", &linebot.PostbackAction{
			Label:       "Taken",
			Data:        taken,
			DisplayText: "Taken",
		}),
		linebot.NewQuickReplyButton("", &linebot.PostbackAction{
			Label:       "Snooze",
			Data:        snooze,
			DisplayText: "Snooze 15 min",
		}),
	))

	if _, err := n.bot.PushMessage(recipient, msg).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrDelivery, err)
	}
	return nil
}

func (n *LINENotifier) SendImmediate(ctx context.Context, title, body string) error {
	recipient := n.Recipient(ctx)
	if recipient == "" {
		return fmt.Errorf("%w: no recipient bound", appErrors.ErrDelivery)
	}
	text := title
	if body != "" {
		text = fmt.Sprintf("%s\n%s", title, body)
	}
	if _, err := n.bot.PushMessage(recipient, linebot.NewTextMessage(text)).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrDelivery, err)
	}
	return nil
}

func actionData(action constant.ResponseAction, p Payload) (string, error) {
	b, err := json.Marshal(Payload{
		Action:       action,
		MedicationID: p.MedicationID,
		ReminderTime: p.ReminderTime,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode payload: %v", appErrors.ErrDelivery, err)
	}
	return string(b), nil
}
