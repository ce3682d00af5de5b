// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/modelhub/portal/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestProfile creates a profile with sensible defaults.
func NewTestProfile(t testing.TB, userID string) *model.Profile {
	t.Helper()
	return &model.Profile{
		ID:        userID,
		Name:      "Ada Lovelace",
		Email:     userID + "@example.com",
		Company:   "Analytical Engines",
		CreatedAt: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

// NewTestSubscription creates an active monthly subscription that started
// forty days before now.
func NewTestSubscription(t testing.TB, id, modelID string, now time.Time) model.Subscription {
	t.Helper()
	start := now.AddDate(0, 0, -40)
	end := start.AddDate(1, 0, 0)
	return model.Subscription{
		ID:            id,
		ModelID:       modelID,
		ModelName:     modelID,
		Plan:          "pro",
		Status:        model.SubscriptionActive,
		BillingPeriod: model.BillingMonthly,
		Price:         49,
		Currency:      "USD",
		UsageQuota:    100000,
		UsageUsed:     25000,
		StartDate:     start,
		EndDate:       &end,
		AutoRenew:     true,
	}
}

// NewTestNotification creates an unread notification for a user.
func NewTestNotification(t testing.TB, userID, id string, createdAt time.Time) model.Notification {
	t.Helper()
	return model.Notification{
		ID:        id,
		UserID:    userID,
		Type:      model.NotificationSystem,
		Title:     "Scheduled maintenance",
		Message:   "The API will be briefly unavailable.",
		CreatedAt: createdAt,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
