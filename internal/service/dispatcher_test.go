package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hydromate/internal/model"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockTokenRepository struct {
	tokens []model.DeviceToken
	err    error
}

func (m *mockTokenRepository) Upsert(ctx context.Context, userID int64, token, platform string) error {
	return nil
}

func (m *mockTokenRepository) GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tokens, nil
}

func (m *mockTokenRepository) Delete(ctx context.Context, token string) error {
	return nil
}

type mockPushSender struct {
	sendFn func(ctx context.Context, tokens []string, title, body string, data map[string]string) error

	sent [][]string
	data []map[string]string
}

func (m *mockPushSender) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if m.sendFn != nil {
		if err := m.sendFn(ctx, tokens, title, body, data); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, tokens)
	m.data = append(m.data, data)
	return nil
}

type mockForeground struct {
	active bool
	showFn func(userID int64, tick model.ReminderTick) error

	shown []model.ReminderTick
}

func (m *mockForeground) IsActive(userID int64) bool { return m.active }

func (m *mockForeground) ShowReminder(userID int64, tick model.ReminderTick) error {
	if m.showFn != nil {
		if err := m.showFn(userID, tick); err != nil {
			return err
		}
	}
	m.shown = append(m.shown, tick)
	return nil
}

func testTick() model.ReminderTick {
	return model.ReminderTick{ID: "tick-1", ServingML: 250, IssuedAt: time.Now()}
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestDispatcher_PushCarriesTickPayload(t *testing.T) {
	tokens := &mockTokenRepository{tokens: []model.DeviceToken{
		{Token: "ExponentPushToken[aaa]"},
		{Token: "ExponentPushToken[bbb]"},
	}}
	push := &mockPushSender{}
	d := NewDeliveryDispatcher(tokens, push, nil)

	if err := d.Dispatch(context.Background(), 1, testTick()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(push.sent) != 1 || len(push.sent[0]) != 2 {
		t.Fatalf("expected one push to 2 tokens, got %v", push.sent)
	}
	data := push.data[0]
	if data["type"] != "water" {
		t.Errorf("expected type=water, got %s", data["type"])
	}
	if data["tick_id"] != "tick-1" {
		t.Errorf("expected tick_id in payload, got %s", data["tick_id"])
	}
	if data["serving_ml"] != "250" {
		t.Errorf("expected serving_ml=250, got %s", data["serving_ml"])
	}
	if data["actions"] != "yes,no" {
		t.Errorf("expected actions=yes,no, got %s", data["actions"])
	}
}

func TestDispatcher_ForegroundAndPushBothFire(t *testing.T) {
	// The push goes out even while the app is foregrounded, so a decision
	// taken after the app dies can still be attributed to this tick.
	tokens := &mockTokenRepository{tokens: []model.DeviceToken{{Token: "tok"}}}
	push := &mockPushSender{}
	fg := &mockForeground{active: true}
	d := NewDeliveryDispatcher(tokens, push, fg)

	if err := d.Dispatch(context.Background(), 1, testTick()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fg.shown) != 1 {
		t.Errorf("expected 1 foreground reminder, got %d", len(fg.shown))
	}
	if len(push.sent) != 1 {
		t.Errorf("expected 1 push, got %d", len(push.sent))
	}
}

func TestDispatcher_BackgroundSkipsForeground(t *testing.T) {
	tokens := &mockTokenRepository{tokens: []model.DeviceToken{{Token: "tok"}}}
	push := &mockPushSender{}
	fg := &mockForeground{active: false}
	d := NewDeliveryDispatcher(tokens, push, fg)

	if err := d.Dispatch(context.Background(), 1, testTick()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fg.shown) != 0 {
		t.Errorf("expected no foreground reminder, got %d", len(fg.shown))
	}
	if len(push.sent) != 1 {
		t.Errorf("expected 1 push, got %d", len(push.sent))
	}
}

func TestDispatcher_NoChannelDropsTick(t *testing.T) {
	tests := []struct {
		name   string
		tokens *mockTokenRepository
		push   PushSender
		fg     ForegroundSurface
	}{
		{"no tokens no surface", &mockTokenRepository{}, &mockPushSender{}, nil},
		{"token lookup fails", &mockTokenRepository{err: errors.New("db down")}, &mockPushSender{}, nil},
		{"push not configured", &mockTokenRepository{tokens: []model.DeviceToken{{Token: "tok"}}}, nil, nil},
		{"backgrounded with no tokens", &mockTokenRepository{}, &mockPushSender{}, &mockForeground{active: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeliveryDispatcher(tt.tokens, tt.push, tt.fg)
			err := d.Dispatch(context.Background(), 1, testTick())
			if !errors.Is(err, model.ErrChannelUnavailable) {
				t.Errorf("expected ErrChannelUnavailable, got %v", err)
			}
		})
	}
}

func TestDispatcher_PushFailureFallsThroughToForeground(t *testing.T) {
	// A failed push with a delivered foreground reminder is still a
	// successful dispatch.
	tokens := &mockTokenRepository{tokens: []model.DeviceToken{{Token: "tok"}}}
	push := &mockPushSender{
		sendFn: func(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
			return errors.New("push service down")
		},
	}
	fg := &mockForeground{active: true}
	d := NewDeliveryDispatcher(tokens, push, fg)

	if err := d.Dispatch(context.Background(), 1, testTick()); err != nil {
		t.Fatalf("expected success via foreground, got %v", err)
	}
	if len(fg.shown) != 1 {
		t.Errorf("expected 1 foreground reminder, got %d", len(fg.shown))
	}
}
