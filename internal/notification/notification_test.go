package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelhub/portal/internal/metrics"
	"github.com/modelhub/portal/internal/model"
)

func at(loc *time.Location, day, hour, min int) time.Time {
	return time.Date(2026, 3, day, hour, min, 0, 0, loc)
}

func TestGroupByDay_Boundaries(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+7", 7*3600)
	now := at(loc, 15, 10, 0)

	items := []model.Notification{
		{ID: "today-midnight", CreatedAt: at(loc, 15, 0, 0)},
		{ID: "today-late", CreatedAt: at(loc, 15, 9, 30)},
		{ID: "yesterday-last", CreatedAt: at(loc, 14, 23, 59)},
		{ID: "yesterday-first", CreatedAt: at(loc, 14, 0, 0)},
		{ID: "week-edge", CreatedAt: at(loc, 9, 0, 0)},
		{ID: "older", CreatedAt: at(loc, 8, 23, 59)},
	}

	groups := GroupByDay(items, now, loc)

	want := map[string][]string{
		BucketToday:     {"today-late", "today-midnight"},
		BucketYesterday: {"yesterday-last", "yesterday-first"},
		BucketThisWeek:  {"week-edge"},
		BucketOlder:     {"older"},
	}
	order := []string{BucketToday, BucketYesterday, BucketThisWeek, BucketOlder}

	if len(groups) != len(order) {
		t.Fatalf("expected %d groups, got %d", len(order), len(groups))
	}
	for i, g := range groups {
		if g.Key != order[i] {
			t.Errorf("group %d: expected %s, got %s", i, order[i], g.Key)
		}
		if len(g.Items) != len(want[g.Key]) {
			t.Errorf("group %s: expected %d items, got %d", g.Key, len(want[g.Key]), len(g.Items))
			continue
		}
		for j, n := range g.Items {
			if n.ID != want[g.Key][j] {
				t.Errorf("group %s item %d: expected %s, got %s", g.Key, j, want[g.Key][j], n.ID)
			}
		}
	}
}

func TestGroupByDay_UsesLocalMidnight(t *testing.T) {
	t.Parallel()

	// 20:00 UTC on the 14th is already the 15th in UTC+7.
	loc := time.FixedZone("UTC+7", 7*3600)
	now := time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)
	items := []model.Notification{{ID: "n", CreatedAt: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}}

	groups := GroupByDay(items, now, loc)
	if len(groups) != 1 || groups[0].Key != BucketToday {
		t.Errorf("expected today bucket, got %+v", groups)
	}

	groups = GroupByDay(items, now, time.UTC)
	if len(groups) != 1 || groups[0].Key != BucketYesterday {
		t.Errorf("expected yesterday bucket in UTC, got %+v", groups)
	}
}

func TestGroupByDay_OmitsEmptyBuckets(t *testing.T) {
	t.Parallel()

	now := time.Now()
	groups := GroupByDay([]model.Notification{{ID: "x", CreatedAt: now.AddDate(0, 0, -30)}}, now, time.UTC)
	if len(groups) != 1 || groups[0].Key != BucketOlder {
		t.Errorf("expected only older bucket, got %+v", groups)
	}

	if got := GroupByDay(nil, now, time.UTC); len(got) != 0 {
		t.Errorf("expected no groups, got %d", len(got))
	}
}

func TestParseFilter(t *testing.T) {
	testCases := []struct {
		name     string
		status   string
		typ      string
		wantErr  bool
		wantType model.NotificationType
	}{
		{"defaults", "", "", false, ""},
		{"unread billing", "unread", "billing", false, model.NotificationBilling},
		{"all types", "read", "all", false, ""},
		{"bad status", "archived", "", true, ""},
		{"bad type", "all", "marketing", true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f, err := ParseFilter(tc.status, tc.typ)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseFilter() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Errorf("expected ErrInvalidFilter, got %v", err)
				}
				return
			}
			if f.Type != tc.wantType {
				t.Errorf("expected type %q, got %q", tc.wantType, f.Type)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	items := []model.Notification{
		{ID: "1", Type: model.NotificationBilling, Read: false},
		{ID: "2", Type: model.NotificationBilling, Read: true},
		{ID: "3", Type: model.NotificationUsage, Read: false},
	}

	testCases := []struct {
		filter Filter
		want   int
	}{
		{Filter{Status: StatusAll}, 3},
		{Filter{Status: StatusUnread}, 2},
		{Filter{Status: StatusRead}, 1},
		{Filter{Status: StatusAll, Type: model.NotificationBilling}, 2},
		{Filter{Status: StatusUnread, Type: model.NotificationBilling}, 1},
	}

	for _, tc := range testCases {
		if got := len(tc.filter.Apply(items)); got != tc.want {
			t.Errorf("filter %+v: expected %d, got %d", tc.filter, tc.want, got)
		}
	}
}

func newTestService(store Store) (*Service, *metrics.InMemoryRecorder) {
	rec := metrics.NewInMemory()
	return NewService(store, time.UTC, rec, slog.New(slog.NewTextHandler(io.Discard, nil))), rec
}

func TestService_MarkAllReadLeavesZeroUnread(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, rec := newTestService(NewMemoryStore())

	before, err := svc.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if before == 0 {
		t.Fatal("expected seeded unread notifications")
	}

	changed, err := svc.MarkAllRead(ctx, "u1")
	if err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if changed != before {
		t.Errorf("expected %d changed, got %d", before, changed)
	}

	after, _ := svc.UnreadCount(ctx, "u1")
	if after != 0 {
		t.Errorf("expected 0 unread, got %d", after)
	}
	if got := rec.Snapshot().NotificationsRead; got != uint64(before) {
		t.Errorf("expected %d read recorded, got %d", before, got)
	}
}

func TestService_MarkAllReadFirstOnFreshStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(NewMemoryStore())

	changed, err := svc.MarkAllRead(ctx, "u1")
	if err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if changed == 0 {
		t.Error("expected starter notifications to be marked read")
	}

	after, err := svc.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if after != 0 {
		t.Errorf("expected 0 unread after mark all read, got %d", after)
	}
}

// flakySeedStore fails the first Seed call without writing anything.
type flakySeedStore struct {
	*MemoryStore
	failed bool
}

func (s *flakySeedStore) Seed(ctx context.Context, userID string, items []model.Notification) (bool, error) {
	if !s.failed {
		s.failed = true
		return false, errors.New("connection reset")
	}
	return s.MemoryStore.Seed(ctx, userID, items)
}

func TestService_SeedRetriedAfterFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(&flakySeedStore{MemoryStore: NewMemoryStore()})

	if _, err := svc.UnreadCount(ctx, "u1"); err == nil {
		t.Fatal("expected the failed seed to surface")
	}

	n, err := svc.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if n == 0 {
		t.Error("expected starter notifications after the retry")
	}
}

func TestMemoryStore_SeedOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	items := SeedNotifications("u1", time.Now())

	first, err := store.Seed(ctx, "u1", items)
	if err != nil || !first {
		t.Fatalf("expected first seed, got %v, %v", first, err)
	}
	again, _ := store.Seed(ctx, "u1", items)
	if again {
		t.Error("expected second seed to report false")
	}

	list, _ := store.List(ctx, "u1")
	if len(list) != len(items) {
		t.Errorf("expected %d items, got %d", len(items), len(list))
	}
}

func TestService_ListSeedsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	svc, _ := newTestService(store)

	first, err := svc.List(ctx, "u1", Filter{Status: StatusAll})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if first.Total != len(seedEntries) {
		t.Errorf("expected %d seeded, got %d", len(seedEntries), first.Total)
	}

	second, _ := svc.List(ctx, "u1", Filter{Status: StatusAll})
	if second.Total != first.Total {
		t.Errorf("expected seeding once, got %d then %d", first.Total, second.Total)
	}
}

func TestService_ReadUnreadDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	svc, _ := newTestService(store)

	res, err := svc.List(ctx, "u1", Filter{Status: StatusUnread})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	target := res.Groups[0].Items[0].ID
	unread := res.Unread

	if err := svc.MarkRead(ctx, "u1", target); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, "u1"); n != unread-1 {
		t.Errorf("expected %d unread, got %d", unread-1, n)
	}

	if err := svc.MarkUnread(ctx, "u1", target); err != nil {
		t.Fatalf("MarkUnread() error = %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, "u1"); n != unread {
		t.Errorf("expected %d unread, got %d", unread, n)
	}

	deleted, err := svc.DeleteMany(ctx, "u1", []string{target, "missing"})
	if err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	if err := svc.MarkRead(ctx, "u1", target); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for deleted item, got %v", err)
	}
	if _, err := svc.DeleteMany(ctx, "u1", nil); !errors.Is(err, ErrNoIDs) {
		t.Errorf("expected ErrNoIDs, got %v", err)
	}
}

func TestService_UsersAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(NewMemoryStore())

	res, _ := svc.List(ctx, "alice", Filter{Status: StatusAll})
	id := res.Groups[0].Items[0].ID

	_, _ = svc.List(ctx, "bob", Filter{Status: StatusAll})
	if err := svc.MarkRead(ctx, "bob", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected bob not to see alice's notification, got %v", err)
	}
}
