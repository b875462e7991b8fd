package model

import (
	"time"
)

// DeviceToken is a user's registered device for push reminders.
// A user can have several devices; every reminder tick is pushed to all of
// them so the decision can come back from whichever one the user touches.
type DeviceToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Token     string    `db:"token" json:"-"`
	Platform  string    `db:"platform" json:"platform"` // "ios", "android", "expo"
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterTokenRequest is the request body for registering a device token.
type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
