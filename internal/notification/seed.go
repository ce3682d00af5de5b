package notification

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/modelhub/portal/internal/model"
)

type seedEntry struct {
	typ     model.NotificationType
	age     time.Duration
	title   string
	message string
	link    string
	read    bool
}

var seedEntries = []seedEntry{
	{model.NotificationUsage, 2 * time.Hour, "Usage at 80%", "Your monthly request quota is 80% used.", "/usage", false},
	{model.NotificationSecurity, 5 * time.Hour, "New sign-in", "A new sign-in to your account was detected.", "/settings", false},
	{model.NotificationBilling, 26 * time.Hour, "Invoice available", "Your latest invoice is ready to download.", "/invoices", false},
	{model.NotificationSubscription, 30 * time.Hour, "Subscription renewed", "Your subscription was renewed for another period.", "/subscriptions", true},
	{model.NotificationSystem, 3 * 24 * time.Hour, "Scheduled maintenance", "Model endpoints will be briefly unavailable on Sunday.", "", true},
	{model.NotificationUsage, 4 * 24 * time.Hour, "Error rate increased", "Error rate on one of your models rose above 2%.", "/usage", false},
	{model.NotificationBilling, 9 * 24 * time.Hour, "Payment received", "Thank you, your payment was received.", "/invoices", true},
	{model.NotificationSystem, 20 * 24 * time.Hour, "New models available", "Several new models were added to the marketplace.", "/models", true},
}

// SeedNotifications returns the starter notifications a new account sees,
// dated relative to now.
func SeedNotifications(userID string, now time.Time) []model.Notification {
	out := make([]model.Notification, 0, len(seedEntries))
	for _, e := range seedEntries {
		created := now.Add(-e.age).UTC()
		out = append(out, model.Notification{
			ID:        ulid.MustNew(ulid.Timestamp(created), rand.Reader).String(),
			UserID:    userID,
			Type:      e.typ,
			Title:     e.title,
			Message:   e.message,
			Link:      e.link,
			Read:      e.read,
			CreatedAt: created,
		})
	}
	return out
}
