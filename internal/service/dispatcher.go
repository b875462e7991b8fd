package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"hydromate/internal/model"
	"hydromate/internal/repository"
)

// PushSender sends an OS push notification to a set of device tokens.
// Implemented by the FCM and Expo clients.
type PushSender interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// ForegroundSurface is whatever in-app surface can show a reminder to a
// user with a live session (SSE/websocket bridge in practice). May be nil
// when the server runs headless.
type ForegroundSurface interface {
	IsActive(userID int64) bool
	ShowReminder(userID int64, tick model.ReminderTick) error
}

// DeliveryDispatcher routes a due reminder tick onto the reachable
// channels. It is fire-and-forget: it never waits for a decision, the
// action router picks that up whenever (and if) it arrives.
type DeliveryDispatcher struct {
	tokens     repository.DeviceTokenRepository
	push       PushSender        // nil when push is not configured
	foreground ForegroundSurface // nil when no in-app surface exists
}

func NewDeliveryDispatcher(tokens repository.DeviceTokenRepository, push PushSender, foreground ForegroundSurface) *DeliveryDispatcher {
	return &DeliveryDispatcher{
		tokens:     tokens,
		push:       push,
		foreground: foreground,
	}
}

// Dispatch shows the tick in-app when the user is foregrounded, and pushes
// an OS notification regardless, so a decision taken after the app dies can
// still be attributed to this tick via the payload.
//
// With no surface at all the tick is dropped: no queue, no retry. The
// scheduler's next tick is the retry.
func (d *DeliveryDispatcher) Dispatch(ctx context.Context, userID int64, tick model.ReminderTick) error {
	delivered := false

	if d.foreground != nil && d.foreground.IsActive(userID) {
		if err := d.foreground.ShowReminder(userID, tick); err != nil {
			log.Printf("[Dispatcher] foreground surface FAILED: user=%d tick=%s err=%v", userID, tick.ID, err)
		} else {
			delivered = true
		}
	}

	if d.push != nil {
		tokens, err := d.tokens.GetByUserID(ctx, userID)
		if err != nil {
			log.Printf("[Dispatcher] get device tokens FAILED: user=%d err=%v", userID, err)
		} else if len(tokens) > 0 {
			tokenStrings := make([]string, len(tokens))
			for i, t := range tokens {
				tokenStrings[i] = t.Token
			}

			title, body := buildReminderMessage(tick.ServingML)
			data := map[string]string{
				"type":       "water",
				"tick_id":    tick.ID,
				"serving_ml": strconv.Itoa(tick.ServingML),
				"actions":    "yes,no",
			}

			if err := d.push.SendToTokens(ctx, tokenStrings, title, body, data); err != nil {
				log.Printf("[Dispatcher] push FAILED: user=%d tick=%s err=%v", userID, tick.ID, err)
			} else {
				delivered = true
			}
		}
	}

	if !delivered {
		log.Printf("[Dispatcher] tick dropped, no reachable channel: user=%d tick=%s", userID, tick.ID)
		return model.ErrChannelUnavailable
	}
	return nil
}

func buildReminderMessage(servingML int) (title, body string) {
	title = "Time to hydrate"
	body = fmt.Sprintf("Drink %d ml of water?", servingML)
	return
}
