package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"

	"medremind/internal/application/dto"
	"medremind/internal/application/service"
	"medremind/internal/infrastructure/notify"
)

// LineHandler handles incoming LINE webhook events. It is mounted only when
// the LINE channel is active.
type LineHandler struct {
	notifier        *notify.LINENotifier
	responses       service.ResponseRouter
	reminderService service.ReminderService
	log             *zap.Logger
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(
	notifier *notify.LINENotifier,
	responses service.ResponseRouter,
	reminderService service.ReminderService,
	log *zap.Logger,
) *LineHandler {
	return &LineHandler{
		notifier:        notifier,
		responses:       responses,
		reminderService: reminderService,
		log:             log,
	}
}

// HandleCallback is the entry point for LINE webhook requests.
func (h *LineHandler) HandleCallback(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.notifier.Client().ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("invalid line signature received")
			return c.String(http.StatusBadRequest, "invalid signature")
		}
		h.log.Error("parsing line webhook failed", zap.Error(err))
		return c.String(http.StatusInternalServerError, "error parsing request")
	}

	for _, event := range events {
		switch event.Type {
		case linebot.EventTypeFollow:
			h.handleFollow(ctx, event)
		case linebot.EventTypeUnfollow:
			h.handleUnfollow(ctx)
		case linebot.EventTypePostback:
			h.handlePostback(ctx, event)
		case linebot.EventTypeMessage:
			h.handleMessage(ctx, event)
		default:
			h.log.Debug("unhandled line event", zap.String("type", string(event.Type)))
		}
	}

	return c.String(http.StatusOK, "OK")
}

// handleFollow binds the follower as the notification recipient.
func (h *LineHandler) handleFollow(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	h.log.Info("follower bound as notification recipient", zap.String("userId", userID))

	if err := h.notifier.SetRecipient(ctx, userID); err != nil {
		h.log.Error("binding recipient failed", zap.Error(err))
	}

	welcome := linebot.NewTextMessage("You're set up for medication reminders. Send \"list\" to see your schedule.")
	if _, err := h.notifier.Client().ReplyMessage(event.ReplyToken, welcome).WithContext(ctx).Do(); err != nil {
		h.log.Warn("follow reply failed", zap.Error(err))
	}
}

// handleUnfollow unbinds the recipient; pushes stop until somebody follows
// again.
func (h *LineHandler) handleUnfollow(ctx context.Context) {
	h.log.Info("recipient unfollowed, unbinding")
	if err := h.notifier.ClearRecipient(ctx); err != nil {
		h.log.Error("unbinding recipient failed", zap.Error(err))
	}
}

// handlePostback turns a quick-reply tap back into a response event.
func (h *LineHandler) handlePostback(ctx context.Context, event *linebot.Event) {
	var payload notify.Payload
	if err := json.Unmarshal([]byte(event.Postback.Data), &payload); err != nil {
		h.log.Warn("undecodable postback data",
			zap.String("data", event.Postback.Data),
			zap.Error(err))
		return
	}
	h.responses.Route(ctx, &dto.ResponseEvent{
		Action:       payload.Action,
		MedicationID: payload.MedicationID,
		ReminderTime: payload.ReminderTime,
	})
}

func (h *LineHandler) handleMessage(ctx context.Context, event *linebot.Event) {
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}
	text := strings.TrimSpace(message.Text)
	if strings.EqualFold(text, "list") {
		h.replyReminderList(ctx, event.ReplyToken)
		return
	}
	h.log.Debug("unrecognized message", zap.String("text", text))
}

func (h *LineHandler) replyReminderList(ctx context.Context, replyToken string) {
	reminders, err := h.reminderService.ListReminders(ctx)
	if err != nil {
		h.log.Error("listing reminders for reply failed", zap.Error(err))
		h.replyText(ctx, replyToken, "Sorry, your reminders could not be loaded right now.")
		return
	}
	h.replyText(ctx, replyToken, formatReminderList(reminders))
}

func (h *LineHandler) replyText(ctx context.Context, replyToken, text string) {
	msg := linebot.NewTextMessage(text)
	if _, err := h.notifier.Client().ReplyMessage(replyToken, msg).WithContext(ctx).Do(); err != nil {
		h.log.Warn("reply failed", zap.Error(err))
	}
}

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func formatReminderList(reminders []*dto.ReminderResponse) string {
	if len(reminders) == 0 {
		return "No reminders configured."
	}

	var b strings.Builder
	b.WriteString("Your reminders:")
	for _, r := range reminders {
		name := r.MedicationName
		if name == "" {
			name = r.MedicationID
		}
		if r.Dosage != "" {
			name = fmt.Sprintf("%s (%s)", name, r.Dosage)
		}

		days := make([]string, 0, len(r.Days))
		for _, d := range r.Days {
			if d >= 0 && d < len(dayNames) {
				days = append(days, dayNames[d])
			}
		}

		state := "on"
		if !r.Enabled {
			state = "off"
		}
		fmt.Fprintf(&b, "\n- %s at %s on %s [%s]", name, r.ScheduledTime, strings.Join(days, ", "), state)
	}
	return b.String()
}
