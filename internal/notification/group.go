// Package notification lists, groups and updates account notifications.
package notification

import (
	"cmp"
	"slices"
	"time"

	"github.com/modelhub/portal/internal/model"
)

// Bucket keys, in display order.
const (
	BucketToday     = "today"
	BucketYesterday = "yesterday"
	BucketThisWeek  = "this_week"
	BucketOlder     = "older"
)

var bucketLabels = map[string]string{
	BucketToday:     "Today",
	BucketYesterday: "Yesterday",
	BucketThisWeek:  "This week",
	BucketOlder:     "Older",
}

// Group is one dated section of the notification list.
type Group struct {
	Key   string               `json:"key"`
	Label string               `json:"label"`
	Items []model.Notification `json:"items"`
}

// GroupByDay partitions items into today, yesterday, this week and older,
// using midnight of now in loc as the boundary. Items in a group are newest
// first and empty groups are left out.
func GroupByDay(items []model.Notification, now time.Time, loc *time.Location) []Group {
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	yesterday := midnight.AddDate(0, 0, -1)
	weekStart := midnight.AddDate(0, 0, -6)

	buckets := make(map[string][]model.Notification, 4)
	for _, n := range items {
		var key string
		switch ts := n.CreatedAt; {
		case !ts.Before(midnight):
			key = BucketToday
		case !ts.Before(yesterday):
			key = BucketYesterday
		case !ts.Before(weekStart):
			key = BucketThisWeek
		default:
			key = BucketOlder
		}
		buckets[key] = append(buckets[key], n)
	}

	groups := make([]Group, 0, len(buckets))
	for _, key := range []string{BucketToday, BucketYesterday, BucketThisWeek, BucketOlder} {
		items := buckets[key]
		if len(items) == 0 {
			continue
		}
		slices.SortStableFunc(items, func(a, b model.Notification) int {
			return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
		})
		groups = append(groups, Group{Key: key, Label: bucketLabels[key], Items: items})
	}
	return groups
}
