package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/notification"
	"github.com/modelhub/portal/internal/repository"
)

type output struct {
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id"`
	Seeded         bool   `json:"seeded"`
	Unread         int    `json:"unread"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		userID      = flag.String("user-id", "", "User ID to notify")
		typ         = flag.String("type", string(model.NotificationSystem), "Notification type (billing,usage,system,security,subscription)")
		title       = flag.String("title", "", "Notification title")
		message     = flag.String("message", "", "Notification message")
		link        = flag.String("link", "", "Optional portal link")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if strings.TrimSpace(*userID) == "" || strings.TrimSpace(*title) == "" {
		fmt.Fprintln(os.Stderr, "--user-id and --title are required")
		os.Exit(1)
	}

	kind := model.NotificationType(strings.ToLower(*typ))
	if !model.IsValidNotificationType(kind) {
		fmt.Fprintf(os.Stderr, "invalid type: %s\n", *typ)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}

	store := repository.NewNotificationRepository(repo)
	now := time.Now().UTC()

	// A user who has never opened the portal gets the starter set first so
	// the portal does not seed over this notification later.
	seeded, err := store.Seed(ctx, *userID, notification.SeedNotifications(*userID, now))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	n := model.Notification{
		ID:        ulid.Make().String(),
		UserID:    *userID,
		Type:      kind,
		Title:     strings.TrimSpace(*title),
		Message:   strings.TrimSpace(*message),
		Link:      *link,
		CreatedAt: now,
	}
	if err := store.Insert(ctx, []model.Notification{n}); err != nil {
		fmt.Fprintln(os.Stderr, "insert notification:", err)
		os.Exit(1)
	}

	unread, err := store.UnreadCount(ctx, *userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{UserID: *userID, NotificationID: n.ID, Seeded: seeded, Unread: unread}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.NotificationID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
