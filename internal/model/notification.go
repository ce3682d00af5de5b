package model

import (
	"slices"
	"time"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationBilling      NotificationType = "billing"
	NotificationUsage        NotificationType = "usage"
	NotificationSystem       NotificationType = "system"
	NotificationSecurity     NotificationType = "security"
	NotificationSubscription NotificationType = "subscription"
)

// ValidNotificationTypes contains all valid notification types.
var ValidNotificationTypes = []NotificationType{
	NotificationBilling,
	NotificationUsage,
	NotificationSystem,
	NotificationSecurity,
	NotificationSubscription,
}

// IsValidNotificationType checks if a notification type is valid.
func IsValidNotificationType(t NotificationType) bool {
	return slices.Contains(ValidNotificationTypes, t)
}

// Notification is an alert surfaced to the account owner.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// ActivityItem is an entry of the dashboard activity feed.
type ActivityItem struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
