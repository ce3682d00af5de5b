//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modelhub/portal/internal/account"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/notification"
	"github.com/modelhub/portal/internal/testutil"
)

func newTestRepository(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	repo, err := New(ctx, testutil.RequireEnv(t, "DATABASE_URL"))
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return ctx, repo
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, repo := newTestRepository(t)

	for _, table := range []string{"notifications", "notification_seeds", "account_preferences"} {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, repo.Pool(), table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, repo := newTestRepository(t)

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("second migrate should be a no-op, got %v", err)
	}
}

func TestIntegrationNotifications_Lifecycle(t *testing.T) {
	ctx, repo := newTestRepository(t)
	store := NewNotificationRepository(repo)
	userID := testutil.UniqueID("usr")

	first, err := store.Seed(ctx, userID, nil)
	if err != nil || !first {
		t.Fatalf("expected first seed, got %v, %v", first, err)
	}
	again, _ := store.Seed(ctx, userID, nil)
	if again {
		t.Error("expected second seed to report false")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	items := []model.Notification{
		testutil.NewTestNotification(t, userID, testutil.UniqueID("n1"), now.Add(-2*time.Hour)),
		testutil.NewTestNotification(t, userID, testutil.UniqueID("n2"), now.Add(-time.Hour)),
		testutil.NewTestNotification(t, userID, testutil.UniqueID("n3"), now),
	}
	if err := store.Insert(ctx, items); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	list, err := store.List(ctx, userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != items[2].ID {
		t.Fatalf("expected 3 items newest first, got %+v", list)
	}

	if err := store.SetRead(ctx, userID, items[0].ID, true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}
	if err := store.SetRead(ctx, userID, "missing", true); !errors.Is(err, notification.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	changed, err := store.MarkRead(ctx, userID, nil)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if changed != 2 {
		t.Errorf("expected 2 changed, got %d", changed)
	}
	if unread, _ := store.UnreadCount(ctx, userID); unread != 0 {
		t.Errorf("expected 0 unread after mark all, got %d", unread)
	}

	deleted, err := store.Delete(ctx, userID, []string{items[1].ID, "missing"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}

func TestIntegrationPreferences_Upsert(t *testing.T) {
	ctx, repo := newTestRepository(t)
	userID := testutil.UniqueID("usr")

	if _, err := repo.GetPreferences(ctx, userID); !errors.Is(err, account.ErrPreferencesNotFound) {
		t.Fatalf("expected ErrPreferencesNotFound, got %v", err)
	}

	p := model.DefaultPreferences(userID)
	p.MutedTypes = []string{"billing", "system"}
	p.Timezone = "Europe/Berlin"
	p.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if err := repo.PutPreferences(ctx, p); err != nil {
		t.Fatalf("PutPreferences: %v", err)
	}

	p.UsageAlertPercent = 95
	if err := repo.PutPreferences(ctx, p); err != nil {
		t.Fatalf("PutPreferences update: %v", err)
	}

	got, err := repo.GetPreferences(ctx, userID)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if got.UsageAlertPercent != 95 {
		t.Errorf("expected 95, got %d", got.UsageAlertPercent)
	}
	if len(got.MutedTypes) != 2 || got.MutedTypes[1] != "system" {
		t.Errorf("expected muted types to round trip, got %v", got.MutedTypes)
	}
}

func TestIntegrationNotifications_SeedRollsBackOnInsertFailure(t *testing.T) {
	ctx, repo := newTestRepository(t)
	store := NewNotificationRepository(repo)
	userID := testutil.UniqueID("usr")

	bad := testutil.NewTestNotification(t, userID, testutil.UniqueID("n"), time.Now().UTC())
	bad.Type = "not-a-type"
	if _, err := store.Seed(ctx, userID, []model.Notification{bad}); err == nil {
		t.Fatal("expected seed with an invalid type to fail")
	}

	seeded, err := store.Seed(ctx, userID, []model.Notification{
		testutil.NewTestNotification(t, userID, testutil.UniqueID("n"), time.Now().UTC()),
	})
	if err != nil || !seeded {
		t.Fatalf("expected retry to seed after a failed attempt, got %v, %v", seeded, err)
	}
	count, err := store.UnreadCount(ctx, userID)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 unread after seeding, got %d, %v", count, err)
	}
}
