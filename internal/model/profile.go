package model

import "time"

// Profile is the account owner as returned by the backend.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PasswordChange is the body of a password change request.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// Preferences are the account settings kept by the portal itself.
type Preferences struct {
	UserID             string    `json:"user_id"`
	EmailNotifications bool      `json:"email_notifications"`
	UsageAlerts        bool      `json:"usage_alerts"`
	UsageAlertPercent  int       `json:"usage_alert_percent"`
	MutedTypes         []string  `json:"muted_types"`
	Timezone           string    `json:"timezone,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultPreferences returns the settings a new account starts with.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:             userID,
		EmailNotifications: true,
		UsageAlerts:        true,
		UsageAlertPercent:  80,
		MutedTypes:         []string{},
	}
}
